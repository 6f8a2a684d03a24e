package gcalendar_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"vox-assistant/pkg/gcalendar"
)

const installedCreds = `{
	"installed": {
		"client_id": "test-client-id.apps.googleusercontent.com",
		"project_id": "test-project",
		"auth_uri": "https://accounts.google.com/o/oauth2/auth",
		"token_uri": "https://oauth2.googleapis.com/token",
		"client_secret": "test-secret",
		"redirect_uris": ["http://localhost"]
	}
}`

type rewriteTransport struct {
	Transport http.RoundTripper
	Host      string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.Host
	return t.Transport.RoundTrip(req)
}

func testClient(t *testing.T, h http.HandlerFunc) *gcalendar.Client {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	hc := ts.Client()
	hc.Transport = &rewriteTransport{
		Transport: hc.Transport,
		Host:      strings.TrimPrefix(ts.URL, "http://"),
	}

	c, err := gcalendar.NewClientFromHTTP(context.Background(), hc)
	require.NoError(t, err)
	return c
}

func TestNewClientFromCredentials(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.json")

	t.Run("broken credentials", func(t *testing.T) {
		_, err := gcalendar.NewClientFromCredentialsJSON(context.Background(), []byte(`{"broken":true}`), tokenPath)
		assert.Error(t, err)
	})

	t.Run("installed app without token", func(t *testing.T) {
		_, err := gcalendar.NewClientFromCredentialsJSON(context.Background(), []byte(installedCreds), tokenPath)
		assert.ErrorIs(t, err, gcalendar.ErrNoToken)
	})

	t.Run("installed app with token", func(t *testing.T) {
		require.NoError(t, gcalendar.SaveToken(tokenPath, &oauth2.Token{
			AccessToken: "dummy",
			TokenType:   "Bearer",
			Expiry:      time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		}))

		_, err := gcalendar.NewClientFromCredentialsJSON(context.Background(), []byte(installedCreds), tokenPath)
		assert.NoError(t, err)
	})

	t.Run("installed app with bad token", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"broken": true`), 0o600))

		_, err := gcalendar.NewClientFromCredentialsJSON(context.Background(), []byte(installedCreds), bad)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := gcalendar.NewClientFromCredentialsFile(context.Background(), filepath.Join(dir, "nope.json"), tokenPath)
		assert.Error(t, err)
	})
}

func TestCreateEvent(t *testing.T) {
	var got map[string]any

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendar/v3/calendars/primary/events" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "event-123", "summary": "Dentist", "htmlLink": "https://calendar.google.com/event-uri"}`))
	})

	start := time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC)
	ev, err := c.CreateEvent(context.Background(), gcalendar.CreateEventRequest{
		Summary:   "Dentist",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Timezone:  "UTC",
	})
	require.NoError(t, err)

	assert.Equal(t, "event-123", ev.ID)
	assert.Equal(t, "https://calendar.google.com/event-uri", ev.HtmlLink)
	assert.Equal(t, "Dentist", got["summary"])
	assert.Equal(t, "2026-10-19T17:00:00Z", got["start"].(map[string]any)["dateTime"])
	assert.Equal(t, "2026-10-19T18:00:00Z", got["end"].(map[string]any)["dateTime"])
}

func TestCreateEventError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.CreateEvent(context.Background(), gcalendar.CreateEventRequest{CalendarID: "work"})
	assert.Error(t, err)
}
