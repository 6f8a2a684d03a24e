package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vox-assistant/internal/entity"
	"vox-assistant/pkg/gcalendar"
)

type rewriteTransport struct {
	Transport http.RoundTripper
	Host      string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.Host
	return t.Transport.RoundTrip(req)
}

type fakeCreator struct {
	calls int
	reqs  []gcalendar.CreateEventRequest
	err   error
}

func (f *fakeCreator) CreateEvent(_ context.Context, req gcalendar.CreateEventRequest) (*gcalendar.Event, error) {
	f.calls++
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &gcalendar.Event{ID: "e1", Summary: req.Summary}, nil
}

func strp(s string) *string { return &s }

func TestAddEventNotConfigured(t *testing.T) {
	h := New(nil, Config{})
	assert.Equal(t, MsgNotConfigured, h.AddEvent(context.Background(), entity.Event{DateTime: strp("2026-10-19T17:00:00Z")}))
}

func TestAddEventWithoutDateTime(t *testing.T) {
	f := &fakeCreator{}
	h := New(f, Config{})

	assert.Equal(t, MsgNoDateTime, h.AddEvent(context.Background(), entity.Event{Name: strp("Dentist")}))
	assert.Equal(t, MsgNoDateTime, h.AddEvent(context.Background(), entity.Event{DateTime: strp("next tuesday")}))
	assert.Zero(t, f.calls)
}

func TestAddEventDefaults(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	f := &fakeCreator{}
	h := New(f, Config{Location: berlin})

	msg := h.AddEvent(context.Background(), entity.Event{DateTime: strp("2026-10-19T17:00:00+02:00")})
	assert.Equal(t, MsgAdded, msg)

	require.Len(t, f.reqs, 1)
	req := f.reqs[0]
	assert.Equal(t, UntitledEvent, req.Summary)
	assert.Equal(t, gcalendar.DefaultCalendarID, req.CalendarID)
	assert.Equal(t, "Europe/Berlin", req.Timezone)
	assert.Equal(t, time.Hour, req.EndTime.Sub(req.StartTime))
}

func TestAddEventThroughAPI(t *testing.T) {
	var body map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendar/v3/calendars/work/events" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"id": "event-1"}`))
	}))
	defer ts.Close()

	hc := ts.Client()
	hc.Transport = &rewriteTransport{Transport: hc.Transport, Host: strings.TrimPrefix(ts.URL, "http://")}

	client, err := gcalendar.NewClientFromHTTP(context.Background(), hc)
	require.NoError(t, err)

	h := New(client, Config{CalendarID: "work", Location: time.UTC, EventLength: 30 * time.Minute})
	msg := h.AddEvent(context.Background(), entity.Event{
		Name:     strp("Call mom"),
		DateTime: strp("2026-10-19T17:00:00Z"),
	})

	assert.Equal(t, MsgAdded, msg)
	assert.Equal(t, "Call mom", body["summary"])
	assert.Equal(t, "2026-10-19T17:30:00Z", body["end"].(map[string]any)["dateTime"])
}

func TestAddEventFailure(t *testing.T) {
	f := &fakeCreator{err: errors.New("quota exceeded")}
	h := New(f, Config{})

	msg := h.AddEvent(context.Background(), entity.Event{DateTime: strp("2026-10-19T17:00:00Z")})
	assert.Equal(t, "Error adding task: quota exceeded", msg)
}

func TestAddEventBreakerOpens(t *testing.T) {
	f := &fakeCreator{err: errors.New("unavailable")}
	h := New(f, Config{BreakerTimeout: time.Hour})
	ev := entity.Event{DateTime: strp("2026-10-19T17:00:00Z")}

	for i := 0; i < 3; i++ {
		h.AddEvent(context.Background(), ev)
	}
	msg := h.AddEvent(context.Background(), ev)

	assert.Equal(t, 3, f.calls)
	assert.True(t, strings.HasPrefix(msg, "Error adding task: "), msg)
}
