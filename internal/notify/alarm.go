package notify

import (
	log "log/slog"
	"sync"
)

// Alarm is a countdown listener that rings and announces completion. The
// cue plays on its own goroutine so the countdown never waits on audio.
type Alarm struct {
	Ring     func() error
	Announce func() error

	wg sync.WaitGroup
}

func (a *Alarm) OnTick(string, int) {}

func (a *Alarm) OnComplete(id string) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		if a.Ring != nil {
			if err := a.Ring(); err != nil {
				log.Warn("Failed to chime", "id", id, "err", err)
			}
		}
		if a.Announce != nil {
			if err := a.Announce(); err != nil {
				log.Error("Failed to voice out", "id", id, "err", err)
			}
		}
	}()
}

// Wait blocks until every started cue has finished.
func (a *Alarm) Wait() { a.wg.Wait() }
