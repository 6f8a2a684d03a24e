package entity

import (
	log "log/slog"
	"strings"

	"github.com/jdkato/prose/v2"
)

var proseLabels = map[string]Label{
	"PERSON": LabelPerson,
	"ORG":    LabelOrg,
	"GPE":    LabelGPE,
}

// ProseRecognizer tags people, organisations and places with prose's
// statistical model.
type ProseRecognizer struct{}

func (ProseRecognizer) Recognize(text string) []Entity {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		log.Debug("NER failed", "err", err)
		return nil
	}

	var (
		out    []Entity
		cursor int
	)
	for _, ent := range doc.Entities() {
		label, ok := proseLabels[ent.Label]
		if !ok {
			continue
		}
		idx := strings.Index(text[cursor:], ent.Text)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		cursor = start + len(ent.Text)
		out = append(out, Entity{Text: ent.Text, Label: label, Start: start})
	}

	return out
}

// Recognizers runs several recognizers and merges their spans. On overlap the
// earlier recognizer in the list wins.
type Recognizers []Recognizer

func (rs Recognizers) Recognize(text string) []Entity {
	var out []Entity
	for _, r := range rs {
		for _, e := range r.Recognize(text) {
			if !overlapsAny(e, out) {
				out = append(out, e)
			}
		}
	}

	sortByStart(out)
	return out
}

// DefaultRecognizer combines the temporal rules with prose NER.
func DefaultRecognizer() Recognizer {
	return Recognizers{TemporalTagger{}, ProseRecognizer{}}
}

func overlapsAny(e Entity, ents []Entity) bool {
	for _, o := range ents {
		if e.Start < o.End() && o.Start < e.End() {
			return true
		}
	}
	return false
}
