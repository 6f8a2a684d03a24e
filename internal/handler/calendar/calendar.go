// Package calendar turns extracted events into Google Calendar entries.
package calendar

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/sony/gobreaker"

	"vox-assistant/internal/entity"
	"vox-assistant/internal/handler"
	"vox-assistant/pkg/gcalendar"
)

const (
	MsgAdded         = "Task added successfully!"
	MsgNoDateTime    = "Error: Could not parse a valid datetime from the input text."
	MsgNotConfigured = "Google Calendar is not configured."
	UntitledEvent    = "Untitled Event"

	DefaultEventLength = 60 * time.Minute
)

type EventCreator interface {
	CreateEvent(ctx context.Context, req gcalendar.CreateEventRequest) (*gcalendar.Event, error)
}

type Config struct {
	CalendarID     string
	Location       *time.Location
	EventLength    time.Duration
	BreakerTimeout time.Duration
}

type Handler struct {
	client  EventCreator
	cfg     Config
	breaker *gobreaker.CircuitBreaker
}

// New returns a Handler. A nil client yields a handler that only reports
// that the calendar is not configured.
func New(client EventCreator, cfg Config) *Handler {
	if cfg.CalendarID == "" {
		cfg.CalendarID = gcalendar.DefaultCalendarID
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.EventLength <= 0 {
		cfg.EventLength = DefaultEventLength
	}

	return &Handler{
		client:  client,
		cfg:     cfg,
		breaker: handler.NewBreaker("calendar", cfg.BreakerTimeout),
	}
}

// AddEvent creates the event and always answers with a sentence to speak.
func (h *Handler) AddEvent(ctx context.Context, ev entity.Event) string {
	if h.client == nil {
		return MsgNotConfigured
	}
	if ev.DateTime == nil {
		return MsgNoDateTime
	}

	start, err := time.Parse(time.RFC3339, *ev.DateTime)
	if err != nil {
		return MsgNoDateTime
	}

	summary := UntitledEvent
	if ev.Name != nil && *ev.Name != "" {
		summary = *ev.Name
	}

	req := gcalendar.CreateEventRequest{
		CalendarID: h.cfg.CalendarID,
		Summary:    summary,
		StartTime:  start,
		EndTime:    start.Add(h.cfg.EventLength),
		Timezone:   zoneName(h.cfg.Location),
	}

	res, err := h.breaker.Execute(func() (interface{}, error) {
		return h.client.CreateEvent(ctx, req)
	})
	if err != nil {
		log.Error("Failed to add event", "summary", summary, "err", err)
		return fmt.Sprintf("Error adding task: %v", err)
	}

	if created, ok := res.(*gcalendar.Event); ok && created != nil {
		log.Info("Event added", "id", created.ID, "summary", summary, "start", req.StartTime)
	}

	return MsgAdded
}

// zoneName returns an IANA name the API accepts, or "" for the process-local zone.
func zoneName(loc *time.Location) string {
	if loc == nil || loc == time.Local || loc.String() == "Local" {
		return ""
	}
	return loc.String()
}
