package nlu

import (
	"fmt"
	"strings"
)

// IntentSpec is the configuration form of a registry entry.
type IntentSpec struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Phrases []string `mapstructure:"phrases" yaml:"phrases"`
}

type Entry struct {
	Intent  Intent
	Phrases []string
}

// Registry is the ordered intent table. Order is priority: the matcher
// stops at the first entry that clears the threshold.
type Registry struct {
	entries []Entry
}

// DefaultSpecs lists the built-in intents. stop_timer sits before set_timer
// because "stop ..." utterances score above the threshold against "set timer".
func DefaultSpecs() []IntentSpec {
	return []IntentSpec{
		{Name: "add_calendar", Phrases: []string{
			"add a meeting", "add to my calendar", "schedule a meeting", "add a task", "remind me to",
		}},
		{Name: "stop_timer", Phrases: []string{
			"stop", "stop the clock", "stop timing",
		}},
		{Name: "set_timer", Phrases: []string{
			"set timer", "set a timer", "start a timer for", "make a timer", "timer for",
		}},
		{Name: "play_song", Phrases: []string{
			"play", "play [song] by [artist]", "can you play [song] by [artist]", "can you play [song]",
		}},
	}
}

func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistry validates specs and freezes them into a Registry.
func NewRegistry(specs []IntentSpec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, ErrEmptyRegistry
	}

	seen := make(map[Intent]bool, len(specs))
	entries := make([]Entry, 0, len(specs))

	for i, spec := range specs {
		intent, err := ParseIntent(spec.Name)
		if err != nil {
			return nil, fmt.Errorf("intent #%d: %w", i, err)
		}
		if intent == Unknown {
			return nil, fmt.Errorf("intent #%d: %w: %s", i, ErrReservedIntent, intent)
		}
		if seen[intent] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIntent, intent)
		}
		if len(spec.Phrases) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoPhrases, intent)
		}

		phrases := make([]string, 0, len(spec.Phrases))
		for _, p := range spec.Phrases {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, fmt.Errorf("%w: %s", ErrEmptyPhrase, intent)
			}
			phrases = append(phrases, p)
		}

		seen[intent] = true
		entries = append(entries, Entry{Intent: intent, Phrases: phrases})
	}

	return &Registry{entries: entries}, nil
}

// Entries returns a copy of the registry in priority order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = Entry{Intent: e.Intent, Phrases: append([]string(nil), e.Phrases...)}
	}
	return out
}

func (r *Registry) Len() int { return len(r.entries) }
