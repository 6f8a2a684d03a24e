package dispatch

import (
	"vox-assistant/internal/entity"
	"vox-assistant/internal/nlu"
)

// Command is a classified utterance with the parameters its intent needs.
// The set of implementations is closed.
type Command interface {
	Intent() nlu.Intent
	command()
}

type PlaySong struct{ Song entity.Song }

type SetTimer struct{ Timer entity.Timer }

type StopTimer struct{}

type AddCalendar struct{ Event entity.Event }

type Unknown struct{}

func (PlaySong) Intent() nlu.Intent    { return nlu.PlaySong }
func (SetTimer) Intent() nlu.Intent    { return nlu.SetTimer }
func (StopTimer) Intent() nlu.Intent   { return nlu.StopTimer }
func (AddCalendar) Intent() nlu.Intent { return nlu.AddCalendar }
func (Unknown) Intent() nlu.Intent     { return nlu.Unknown }

func (PlaySong) command()    {}
func (SetTimer) command()    {}
func (StopTimer) command()   {}
func (AddCalendar) command() {}
func (Unknown) command()     {}

// Effect classifies what a dispatch did besides answering.
type Effect int

const (
	EffectNone Effect = iota
	EffectExternalCall
	EffectTaskStarted
)

func (e Effect) String() string {
	switch e {
	case EffectExternalCall:
		return "external_call"
	case EffectTaskStarted:
		return "task_started"
	default:
		return "none"
	}
}

// Outcome is the result of one command cycle. An empty Response means
// nothing should be spoken.
type Outcome struct {
	Response string
	Effect   Effect
}
