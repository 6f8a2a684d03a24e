// Package bus publishes timer events to the desktop UI over a websocket.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	log "log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	Source = "vox"

	KindTimerTick = "timer_tick"
	KindTimerDone = "timer_done"
)

const (
	writeTimeout = 2 * time.Second
	queueSize    = 16
)

var ErrClosed = errors.New("bus closed")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to,omitempty"`
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

// Publisher writes Messages to one websocket endpoint. The connection is
// dialed lazily and redialed after a failed write. Timer signals are queued
// and sent from a separate goroutine; they are dropped when the queue is full.
type Publisher struct {
	url    string
	dialer *websocket.Dialer

	queue     chan Message
	ctx       context.Context
	stop      context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func New(wsURL string) (*Publisher, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, errors.New("bus url must be ws:// or wss://")
	}

	ctx, stop := context.WithCancel(context.Background())
	p := &Publisher{
		url:    u.String(),
		dialer: websocket.DefaultDialer,
		queue:  make(chan Message, queueSize),
		ctx:    ctx,
		stop:   stop,
	}

	p.wg.Add(1)
	go p.drain()

	return p, nil
}

func (p *Publisher) Publish(ctx context.Context, m Message) error {
	if m.From == "" {
		m.From = Source
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.conn == nil {
		conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
		if err != nil {
			return err
		}
		log.Info("Connected to bus", "url", p.url)
		p.conn = conn
	}

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		p.conn.Close()
		p.conn = nil
		return err
	}

	return nil
}

func (p *Publisher) OnTick(id string, remaining int) {
	p.enqueue(Message{Kind: KindTimerTick, ID: id, Content: strconv.Itoa(remaining)})
}

func (p *Publisher) OnComplete(id string) {
	p.enqueue(Message{Kind: KindTimerDone, ID: id, Content: "Time's up!"})
}

// enqueue never blocks the caller.
func (p *Publisher) enqueue(m Message) {
	if p.ctx.Err() != nil {
		return
	}
	select {
	case p.queue <- m:
	default:
		log.Warn("Bus queue full, dropping", "kind", m.Kind, "id", m.ID)
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case m := <-p.queue:
			p.emit(m)
		}
	}
}

func (p *Publisher) emit(m Message) {
	ctx, cancel := context.WithTimeout(p.ctx, writeTimeout)
	defer cancel()

	if err := p.Publish(ctx, m); err != nil && p.ctx.Err() == nil {
		log.Warn("Bus publish failed", "kind", m.Kind, "err", err)
	}
}

// Close stops the sender, dropping queued messages, and closes the connection.
func (p *Publisher) Close() error {
	p.closeOnce.Do(p.stop)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.conn == nil {
		return nil
	}
	_ = p.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout),
	)
	err := p.conn.Close()
	p.conn = nil
	return err
}
