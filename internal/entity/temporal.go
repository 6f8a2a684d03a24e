package entity

import (
	"regexp"
	"sort"
)

const (
	weekdays = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
	months   = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
)

type temporalRule struct {
	label Label
	re    *regexp.Regexp
}

// Group 1, when present, is the entity span; the rest of the match is context.
var temporalRules = []temporalRule{
	{LabelDate, regexp.MustCompile(`(?i)\b(\d{4}-\d{2}-\d{2}(?:[t ]\d{2}:\d{2}(?::\d{2})?(?:z|[+-]\d{2}:\d{2})?)?)\b`)},
	{LabelDate, regexp.MustCompile(`(?i)\b(day after tomorrow|today|tonight|tomorrow)\b`)},
	{LabelDate, regexp.MustCompile(`(?i)\b((?:next|this|on)\s+(?:` + weekdays + `)|(?:` + weekdays + `))\b`)},
	{LabelDate, regexp.MustCompile(`(?i)\b((?:next|this)\s+(?:week|month|year))\b`)},
	{LabelDate, regexp.MustCompile(`(?i)\b((?:` + months + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)\b`)},
	{LabelDate, regexp.MustCompile(`(?i)\b(\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:` + months + `)(?:,?\s+\d{4})?)\b`)},
	{LabelTime, regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:(?:am|pm)\b|a\.m\.|p\.m\.))`)},
	{LabelTime, regexp.MustCompile(`(?i)\bat\s+(\d{1,2}(?::\d{2})?)\b`)},
	{LabelTime, regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2})\b`)},
	{LabelTime, regexp.MustCompile(`(?i)\b(noon|midnight)\b`)},
	{LabelTime, regexp.MustCompile(`(?i)\b((?:in the|this)\s+(?:morning|afternoon|evening))\b`)},
	{LabelTime, regexp.MustCompile(`(?i)\b(in\s+\d+\s+(?:minutes?|hours?|days?|weeks?))\b`)},
}

// TemporalTagger is a rule-based DATE/TIME recognizer.
type TemporalTagger struct{}

func (TemporalTagger) Recognize(text string) []Entity {
	var found []Entity

	for _, rule := range temporalRules {
		for _, m := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			if len(m) >= 4 && m[2] >= 0 {
				start, end = m[2], m[3]
			}
			found = append(found, Entity{Text: text[start:end], Label: rule.label, Start: start})
		}
	}

	return dropOverlaps(found)
}

// dropOverlaps sorts by position and keeps the longest span among overlapping ones.
func dropOverlaps(ents []Entity) []Entity {
	sort.SliceStable(ents, func(i, j int) bool {
		if ents[i].Start != ents[j].Start {
			return ents[i].Start < ents[j].Start
		}
		return len(ents[i].Text) > len(ents[j].Text)
	})

	out := ents[:0]
	for _, e := range ents {
		if n := len(out); n > 0 && e.Start < out[n-1].End() {
			if e.End() > out[n-1].End() && len(e.Text) > len(out[n-1].Text) {
				out[n-1] = e
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

func sortByStart(ents []Entity) {
	sort.SliceStable(ents, func(i, j int) bool { return ents[i].Start < ents[j].Start })
}
