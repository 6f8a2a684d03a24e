// Package dispatch turns raw command text into a handler call and a reply.
package dispatch

import (
	"context"
	log "log/slog"
	"time"

	"vox-assistant/internal/countdown"
	"vox-assistant/internal/entity"
	"vox-assistant/internal/nlu"
)

const (
	MsgBadDuration = "Sorry, I couldn't understand the timer duration."
	MsgTimerStop   = "Timer stopped."
	MsgUnknown     = "Sorry, I didn't understand that."
	MsgFailed      = "Sorry, something went wrong."
)

type Extractor interface {
	ExtractTimer(text string) entity.Timer
	ExtractEvent(text string, loc *time.Location) entity.Event
	ExtractSong(text string) entity.Song
}

type MusicHandler interface {
	Play(ctx context.Context, song entity.Song) string
}

type CalendarHandler interface {
	AddEvent(ctx context.Context, ev entity.Event) string
}

type Timer interface {
	Start(seconds int) *countdown.Task
	Stop() bool
}

type Dispatcher struct {
	normalizer *nlu.Normalizer
	matcher    *nlu.Matcher
	extractor  Extractor
	music      MusicHandler
	calendar   CalendarHandler
	timer      Timer
	loc        *time.Location
}

type Deps struct {
	Normalizer *nlu.Normalizer
	Matcher    *nlu.Matcher
	Extractor  Extractor
	Music      MusicHandler
	Calendar   CalendarHandler
	Timer      Timer
	Location   *time.Location
}

func New(d Deps) *Dispatcher {
	if d.Normalizer == nil {
		d.Normalizer = nlu.NewNormalizer(nlu.DefaultFillers)
	}
	if d.Matcher == nil {
		d.Matcher = nlu.NewMatcher(nil)
	}
	return &Dispatcher{
		normalizer: d.Normalizer,
		matcher:    d.Matcher,
		extractor:  d.Extractor,
		music:      d.Music,
		calendar:   d.Calendar,
		timer:      d.Timer,
		loc:        d.Location,
	}
}

// Process runs one command cycle. Empty input is a no-op.
func (d *Dispatcher) Process(ctx context.Context, text string) Outcome {
	u := d.normalizer.Normalize(text)
	if u.Empty() {
		return Outcome{}
	}

	cmd := d.Resolve(u)
	log.Info("Command resolved", "intent", cmd.Intent(), "text", u.Normalized)

	return d.Execute(ctx, cmd)
}

// Resolve classifies the utterance and extracts what its intent needs.
func (d *Dispatcher) Resolve(u nlu.Utterance) Command {
	switch d.matcher.Match(u.Normalized) {
	case nlu.PlaySong:
		return PlaySong{Song: d.extractor.ExtractSong(u.Raw)}
	case nlu.SetTimer:
		return SetTimer{Timer: d.extractor.ExtractTimer(u.Raw)}
	case nlu.StopTimer:
		return StopTimer{}
	case nlu.AddCalendar:
		return AddCalendar{Event: d.extractor.ExtractEvent(u.Raw, d.loc)}
	default:
		return Unknown{}
	}
}

// Execute runs cmd against its handler. Handler panics become MsgFailed.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler panicked", "intent", cmd.Intent(), "panic", r)
			out = Outcome{Response: MsgFailed}
		}
	}()

	switch c := cmd.(type) {
	case PlaySong:
		return Outcome{Response: d.music.Play(ctx, c.Song), Effect: EffectExternalCall}

	case SetTimer:
		if c.Timer.DurationSeconds == nil {
			return Outcome{Response: MsgBadDuration}
		}
		d.timer.Start(*c.Timer.DurationSeconds)
		return Outcome{Effect: EffectTaskStarted}

	case StopTimer:
		d.timer.Stop()
		return Outcome{Response: MsgTimerStop}

	case AddCalendar:
		return Outcome{Response: d.calendar.AddEvent(ctx, c.Event), Effect: EffectExternalCall}

	default:
		return Outcome{Response: MsgUnknown}
	}
}
