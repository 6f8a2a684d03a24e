package nlu

import (
	"regexp"
	"strings"
)

var DefaultFillers = []string{"can you", "could you", "please"}

var (
	punctRe = regexp.MustCompile(`[.,!?;"]+`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Utterance is one captured command. Raw keeps the original casing for
// entity extraction, Normalized is what the matcher sees.
type Utterance struct {
	Raw        string
	Normalized string
}

func (u Utterance) Empty() bool { return u.Normalized == "" }

type Normalizer struct {
	fillers *regexp.Regexp
}

func NewNormalizer(fillers []string) *Normalizer {
	n := &Normalizer{}

	var alts []string
	for _, f := range fillers {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(f))
	}
	if len(alts) > 0 {
		n.fillers = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
	}

	return n
}

func (n *Normalizer) Normalize(raw string) Utterance {
	s := strings.ToLower(raw)
	s = punctRe.ReplaceAllString(s, " ")
	if n.fillers != nil {
		s = n.fillers.ReplaceAllString(s, " ")
	}
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))

	return Utterance{Raw: strings.TrimSpace(raw), Normalized: s}
}
