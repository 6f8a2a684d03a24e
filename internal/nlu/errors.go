package nlu

import "errors"

var (
	ErrEmptyIntentName = errors.New("intent name is empty")
	ErrUnknownIntent   = errors.New("unknown intent name")
	ErrReservedIntent  = errors.New("intent is reserved")
	ErrDuplicateIntent = errors.New("intent registered twice")
	ErrNoPhrases       = errors.New("intent has no phrases")
	ErrEmptyPhrase     = errors.New("intent has an empty phrase")
	ErrEmptyRegistry   = errors.New("registry has no intents")
)
