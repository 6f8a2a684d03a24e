package nlu

import (
	"fmt"
	"strings"
)

// Intent is the closed set of commands the assistant understands.
type Intent int

const (
	Unknown Intent = iota
	PlaySong
	SetTimer
	StopTimer
	AddCalendar
)

var intentNames = map[Intent]string{
	Unknown:     "unknown",
	PlaySong:    "play_song",
	SetTimer:    "set_timer",
	StopTimer:   "stop_timer",
	AddCalendar: "add_calendar",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

// ParseIntent maps a configuration name such as "set_timer" to its Intent.
func ParseIntent(name string) (Intent, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Unknown, ErrEmptyIntentName
	}
	for intent, n := range intentNames {
		if n == name {
			return intent, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownIntent, name)
}
