// Package listen runs the foreground command loop: capture a command, hand it
// to the dispatcher, speak the response.
package listen

import (
	"context"
	log "log/slog"
	"time"

	"golang.org/x/time/rate"

	"vox-assistant/internal/dispatch"
)

const DefaultPause = 250 * time.Millisecond

// Source yields one command per call. ok is false when this cycle produced
// nothing usable (timeout, silence, failed transcription).
type Source interface {
	Capture(ctx context.Context) (text string, ok bool)
}

// Finite sources report when they have nothing left; the loop then stops.
type Finite interface {
	Exhausted() bool
}

type Speaker interface {
	Speak(text string) error
}

type Processor interface {
	Process(ctx context.Context, text string) dispatch.Outcome
}

type Loop struct {
	source  Source
	proc    Processor
	speaker Speaker
	limiter *rate.Limiter

	transcript *Transcript
}

type Option func(*Loop)

// WithPause sets the minimum time between two capture cycles.
func WithPause(d time.Duration) Option {
	return func(l *Loop) {
		if d <= 0 {
			l.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		l.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithTranscript records every captured command in t.
func WithTranscript(t *Transcript) Option {
	return func(l *Loop) {
		l.transcript = t
	}
}

func New(source Source, proc Processor, speaker Speaker, opts ...Option) *Loop {
	l := &Loop{
		source:  source,
		proc:    proc,
		speaker: speaker,
		limiter: rate.NewLimiter(rate.Every(DefaultPause), 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run cycles until ctx is cancelled or a Finite source runs dry. Both are
// normal exits and return nil.
func (l *Loop) Run(ctx context.Context) error {
	log.Info("Listening loop started")
	defer log.Info("Listening loop stopped")

	for {
		if f, ok := l.source.(Finite); ok && f.Exhausted() {
			return nil
		}
		if err := l.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		l.cycle(ctx)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (l *Loop) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Listening cycle panicked", "panic", r)
		}
	}()

	text, ok := l.source.Capture(ctx)
	if !ok {
		return
	}

	log.Info("Command", "text", text)
	if l.transcript != nil {
		if err := l.transcript.Append(text); err != nil {
			log.Warn("Failed to write transcript", "err", err)
		}
	}

	out := l.proc.Process(ctx, text)
	log.Info("Response", "effect", out.Effect, "text", out.Response)

	if out.Response == "" || l.speaker == nil {
		return
	}
	if err := l.speaker.Speak(out.Response); err != nil {
		log.Error("Failed to voice out", "err", err)
	}
}

// Handle runs one command outside the loop, e.g. from the control socket.
func (l *Loop) Handle(ctx context.Context, text string) dispatch.Outcome {
	out := l.proc.Process(ctx, text)
	if out.Response != "" && l.speaker != nil {
		if err := l.speaker.Speak(out.Response); err != nil {
			log.Error("Failed to voice out", "err", err)
		}
	}
	return out
}
