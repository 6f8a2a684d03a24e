package entity

import (
	log "log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	timerRe   = regexp.MustCompile(`(?i)(\d+)\s*(hours?|hrs?|minutes?|mins?|seconds?|secs?)?\b`)
	byRe      = regexp.MustCompile(`(?i)\bby\b`)
	triggerRe = regexp.MustCompile(`(?i)\bplay\b`)
	hourRe    = regexp.MustCompile(`^\d{1,2}$`)
)

// Timestamp layouts tried before natural-language parsing.
var explicitLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Extractor turns command text into typed parameters. Every method is a pure
// function of its input and the injected clock.
type Extractor struct {
	recognizer Recognizer
	dates      *when.Parser
	loc        *time.Location
	now        func() time.Time
}

type Option func(*Extractor)

func WithRecognizer(r Recognizer) Option {
	return func(e *Extractor) { e.recognizer = r }
}

// WithLocation sets the zone used when an utterance names no zone.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func New(opts ...Option) *Extractor {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	e := &Extractor{
		recognizer: DefaultRecognizer(),
		dates:      w,
		loc:        time.Local,
		now:        time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) Location() *time.Location { return e.loc }

// ExtractTimer reads the first "<number> [unit]" in text. A number without a
// unit counts as seconds.
func (e *Extractor) ExtractTimer(text string) Timer {
	m := timerRe.FindStringSubmatch(text)
	if m == nil {
		return Timer{}
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Timer{}
	}

	mult := 1
	switch unit := strings.ToLower(m[2]); {
	case strings.HasPrefix(unit, "h"):
		mult = 3600
	case strings.HasPrefix(unit, "m"):
		mult = 60
	}
	if n > math.MaxInt32/mult {
		return Timer{}
	}

	return Timer{DurationSeconds: ptr(n * mult)}
}

// ExtractEvent finds the event name and start time. loc is the zone for
// times given without one; nil means the extractor's default.
func (e *Extractor) ExtractEvent(text string, loc *time.Location) Event {
	if loc == nil {
		loc = e.loc
	}

	var dateParts, nameParts []string
	for _, ent := range e.recognizer.Recognize(text) {
		switch ent.Label {
		case LabelDate, LabelTime:
			dateParts = append(dateParts, clockTime(ent.Text))
		case LabelPerson, LabelOrg, LabelWork, LabelEvent:
			nameParts = append(nameParts, ent.Text)
		}
	}

	var ev Event
	if len(nameParts) > 0 {
		ev.Name = ptr(strings.Join(nameParts, " "))
	}

	t, ok := time.Time{}, false
	if len(dateParts) > 0 {
		t, ok = e.parseDateTime(strings.Join(dateParts, " "), loc)
	}
	if !ok {
		t, ok = e.parseDateTime(text, loc)
	}
	if ok {
		ev.DateTime = ptr(t.Truncate(time.Second).Format(time.RFC3339))
	}

	return ev
}

func (e *Extractor) parseDateTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range explicitLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	r, err := e.dates.Parse(s, e.now().In(loc))
	if err != nil {
		log.Debug("Date parse failed", "text", s, "err", err)
		return time.Time{}, false
	}
	if r == nil {
		return time.Time{}, false
	}

	return localize(r.Time, loc), true
}

// clockTime turns a bare hour ("at 5") into "5:00" so the date parser reads
// it as a time of day.
func clockTime(span string) string {
	if hourRe.MatchString(span) {
		return span + ":00"
	}
	return span
}

// localize re-anchors the wall clock of t in loc.
func localize(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// ExtractSong splits "play <title> by <artist>". Without "by" it falls back to
// recognized names: the first is the title, the rest the artist.
func (e *Extractor) ExtractSong(text string) Song {
	if loc := byRe.FindStringIndex(text); loc != nil {
		left, right := text[:loc[0]], text[loc[1]:]
		if t := triggerRe.FindStringIndex(left); t != nil {
			left = left[t[1]:]
		}
		return Song{Title: clean(left), Artist: clean(right)}
	}

	var names []string
	for _, ent := range e.recognizer.Recognize(text) {
		if ent.Label == LabelPerson || ent.Label == LabelWork {
			names = append(names, ent.Text)
		}
	}
	if len(names) == 0 {
		return Song{}
	}

	var song Song
	song.Title = clean(names[0])
	if len(names) > 1 {
		song.Artist = clean(strings.Join(names[1:], " "))
	}
	return song
}

func clean(s string) *string {
	s = strings.Trim(strings.TrimSpace(s), ".,!?;\"'")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
