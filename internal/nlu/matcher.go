package nlu

import (
	log "log/slog"
	"math"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

const DefaultThreshold = 60

type Matcher struct {
	registry  *Registry
	threshold int
}

type MatcherOption func(*Matcher)

// WithThreshold sets the score an utterance must exceed to match a phrase.
func WithThreshold(t int) MatcherOption {
	return func(m *Matcher) {
		if t >= 0 && t <= 100 {
			m.threshold = t
		}
	}
}

func NewMatcher(reg *Registry, opts ...MatcherOption) *Matcher {
	if reg == nil {
		reg = DefaultRegistry()
	}
	m := &Matcher{registry: reg, threshold: DefaultThreshold}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Matcher) Threshold() int { return m.threshold }

// Match returns the first registered intent with a phrase scoring strictly
// above the threshold, or Unknown.
func (m *Matcher) Match(text string) Intent {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Unknown
	}

	for _, e := range m.registry.entries {
		for _, phrase := range e.Phrases {
			score := Score(text, phrase)
			if score > m.threshold {
				log.Debug("Intent matched", "intent", e.Intent, "phrase", phrase, "score", score)
				return e.Intent
			}
		}
	}

	log.Debug("No intent matched", "text", text)
	return Unknown
}

// Score is a partial similarity in [0, 100]: the shorter string is slid
// across the longer one and the best window's Levenshtein similarity wins.
func Score(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == "" || b == "" {
		return 0
	}

	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}

	lev := metrics.NewLevenshtein()
	needle := string(short)

	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		sim := strutil.Similarity(needle, string(long[i:i+len(short)]), lev)
		if sim > best {
			best = sim
			if best == 1 {
				break
			}
		}
	}

	return int(math.Round(best * 100))
}
