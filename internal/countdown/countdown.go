// Package countdown runs the assistant's single background timer.
package countdown

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultInterval = time.Second

// Task is a handle to one running countdown.
type Task struct {
	ID      string
	Seconds int

	cancel  context.CancelFunc
	stopped chan struct{} // closed when the countdown itself ends
	done    chan struct{} // closed when every signal has been delivered
}

// Cancel stops the task and returns once it has stopped counting. A listener
// call already in flight may still be running.
func (t *Task) Cancel() {
	t.cancel()
	<-t.stopped
}

// Done is closed after the task has stopped and its listener calls returned.
func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) finished() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// Countdown owns at most one active Task.
type Countdown struct {
	mu       sync.Mutex
	base     context.Context
	active   *Task
	last     *Task
	interval time.Duration
	listener Listener
}

type Option func(*Countdown)

// WithInterval sets the time between ticks.
func WithInterval(d time.Duration) Option {
	return func(c *Countdown) {
		if d > 0 {
			c.interval = d
		}
	}
}

// New returns a Countdown whose tasks live at most as long as ctx.
func New(ctx context.Context, listener Listener, opts ...Option) *Countdown {
	if listener == nil {
		listener = LogListener()
	}
	c := &Countdown{
		base:     ctx,
		interval: DefaultInterval,
		listener: listener,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start cancels any running task, waits for it to stop and starts a new one.
// Signals of the new task are delivered only after those of the previous one.
func (c *Countdown) Start(seconds int) *Task {
	if seconds < 0 {
		seconds = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && !c.active.finished() {
		c.active.Cancel()
	}

	var prev <-chan struct{}
	if c.last != nil {
		prev = c.last.done
	}

	ctx, cancel := context.WithCancel(c.base)
	t := &Task{
		ID:      uuid.NewString(),
		Seconds: seconds,
		cancel:  cancel,
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	c.active = t
	c.last = t

	ticks := make(chan int, 1)
	end := make(chan bool, 1)

	log.Info("Timer started", "id", t.ID, "seconds", seconds)
	go c.run(ctx, t, ticks, end)
	go c.deliver(ctx, t, prev, ticks, end)

	return t
}

// Stop cancels the running task. It reports false when nothing was running.
func (c *Countdown) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.active
	c.active = nil
	if t == nil || t.finished() {
		return false
	}

	t.Cancel()
	log.Info("Timer stopped", "id", t.ID)
	return true
}

// Active reports whether a task is still counting down.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active != nil && !c.active.finished()
}

// run counts down against a fixed deadline, so time spent elsewhere never
// stretches the countdown. It reports on end whether the task completed.
func (c *Countdown) run(ctx context.Context, t *Task, ticks chan int, end chan<- bool) {
	completed := false
	defer func() {
		end <- completed
		close(t.stopped)
	}()

	deadline := time.Now().Add(time.Duration(t.Seconds) * c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	last := t.Seconds + 1
	for {
		if ctx.Err() != nil {
			return
		}
		remaining := c.remaining(deadline)
		if remaining <= 0 {
			break
		}
		if remaining < last {
			offer(ticks, remaining)
			last = remaining
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}

	completed = ctx.Err() == nil
}

// remaining is the number of whole intervals left, rounded up.
func (c *Countdown) remaining(deadline time.Time) int {
	left := time.Until(deadline)
	if left <= 0 {
		return 0
	}
	return int((left + c.interval - 1) / c.interval)
}

// deliver calls the listener off the tick path. A slow listener sees the
// latest remaining value and skips stale ones. Nothing is delivered after
// the task is cancelled.
func (c *Countdown) deliver(ctx context.Context, t *Task, prev <-chan struct{}, ticks <-chan int, end <-chan bool) {
	defer close(t.done)
	defer t.cancel()

	if prev != nil {
		<-prev
	}

	for {
		select {
		case completed := <-end:
			c.finish(ctx, t, completed)
			return
		default:
		}

		select {
		case completed := <-end:
			c.finish(ctx, t, completed)
			return
		case remaining := <-ticks:
			if ctx.Err() == nil {
				c.listener.OnTick(t.ID, remaining)
			}
		}
	}
}

func (c *Countdown) finish(ctx context.Context, t *Task, completed bool) {
	if completed && ctx.Err() == nil {
		c.listener.OnComplete(t.ID)
	}
}

// offer replaces any value still waiting in ch with v.
func offer(ch chan int, v int) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
