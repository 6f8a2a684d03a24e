package countdown

import log "log/slog"

// Listener receives countdown signals. Calls for one task arrive from a single
// goroutine, in order: OnTick(N) ... OnTick(1), then OnComplete.
type Listener interface {
	OnTick(id string, remaining int)
	OnComplete(id string)
}

// Listeners fans every signal out to each member in order.
type Listeners []Listener

func (ls Listeners) OnTick(id string, remaining int) {
	for _, l := range ls {
		l.OnTick(id, remaining)
	}
}

func (ls Listeners) OnComplete(id string) {
	for _, l := range ls {
		l.OnComplete(id)
	}
}

// Funcs adapts plain functions to a Listener. Nil fields are skipped.
type Funcs struct {
	Tick     func(id string, remaining int)
	Complete func(id string)
}

func (f Funcs) OnTick(id string, remaining int) {
	if f.Tick != nil {
		f.Tick(id, remaining)
	}
}

func (f Funcs) OnComplete(id string) {
	if f.Complete != nil {
		f.Complete(id)
	}
}

type logListener struct{}

// LogListener writes ticks at debug level and completion at info.
func LogListener() Listener { return logListener{} }

func (logListener) OnTick(id string, remaining int) {
	log.Debug("Timer tick", "id", id, "remaining", remaining)
}

func (logListener) OnComplete(id string) {
	log.Info("Timer finished", "id", id)
}
