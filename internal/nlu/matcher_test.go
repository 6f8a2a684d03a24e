package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"stop", "stop the clock", 100},
		{"STOP", "stop", 100},
		{"abcde", "abcdx", 80},
		{"", "play", 0},
		{"play", "", 0},
		{"zzzz", "play", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.a, tt.b))
			assert.Equal(t, tt.want, Score(tt.b, tt.a))
		})
	}
}

func TestMatcherDefaultRegistry(t *testing.T) {
	m := NewMatcher(DefaultRegistry())

	tests := []struct {
		text string
		want Intent
	}{
		{"set a timer for 5 minutes", SetTimer},
		{"play bohemian rhapsody by queen", PlaySong},
		{"remind me to call mom tomorrow at 5pm", AddCalendar},
		{"stop", StopTimer},
		{"Stop", StopTimer},
		{"", Unknown},
		{"   ", Unknown},
		{"zzzz", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.text))
		})
	}
}

func TestMatcherExactPhrase(t *testing.T) {
	reg, err := NewRegistry([]IntentSpec{
		{Name: "add_calendar", Phrases: []string{"remind me"}},
		{Name: "set_timer", Phrases: []string{"countdown"}},
		{Name: "play_song", Phrases: []string{"jukebox"}},
		{Name: "stop_timer", Phrases: []string{"halt"}},
	})
	require.NoError(t, err)

	m := NewMatcher(reg)
	for _, e := range reg.Entries() {
		for _, p := range e.Phrases {
			assert.Equal(t, e.Intent, m.Match(p), p)
		}
	}
}

func TestMatcherFirstMatchWins(t *testing.T) {
	reg, err := NewRegistry([]IntentSpec{
		{Name: "play_song", Phrases: []string{"timer"}},
		{Name: "set_timer", Phrases: []string{"set timer"}},
	})
	require.NoError(t, err)

	assert.Equal(t, PlaySong, NewMatcher(reg).Match("set timer"))
}

func TestMatcherThresholdIsStrict(t *testing.T) {
	reg, err := NewRegistry([]IntentSpec{{Name: "play_song", Phrases: []string{"abcdx"}}})
	require.NoError(t, err)

	assert.Equal(t, Unknown, NewMatcher(reg, WithThreshold(80)).Match("abcde"))
	assert.Equal(t, PlaySong, NewMatcher(reg, WithThreshold(79)).Match("abcde"))
}

func TestMatcherIgnoresInvalidThreshold(t *testing.T) {
	m := NewMatcher(nil, WithThreshold(250))
	assert.Equal(t, DefaultThreshold, m.Threshold())
}
