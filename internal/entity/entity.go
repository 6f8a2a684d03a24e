// Package entity pulls structured parameters out of free-text commands:
// timer durations, calendar events and song requests.
package entity

type Label string

const (
	LabelDate   Label = "DATE"
	LabelTime   Label = "TIME"
	LabelPerson Label = "PERSON"
	LabelOrg    Label = "ORG"
	LabelGPE    Label = "GPE"
	LabelWork   Label = "WORK_OF_ART"
	LabelEvent  Label = "EVENT"
)

// Entity is a labelled span. Start is the byte offset into the source text.
type Entity struct {
	Text  string
	Label Label
	Start int
}

func (e Entity) End() int { return e.Start + len(e.Text) }

// Recognizer tags named entities in text, in text order.
type Recognizer interface {
	Recognize(text string) []Entity
}

// Timer holds the requested duration. nil means no number was found.
type Timer struct {
	DurationSeconds *int
}

// Event holds a calendar request. DateTime is RFC3339.
type Event struct {
	Name     *string
	DateTime *string
}

type Song struct {
	Title  *string
	Artist *string
}

func ptr[T any](v T) *T { return &v }
