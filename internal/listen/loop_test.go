package listen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"vox-assistant/internal/dispatch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type capture struct {
	text  string
	ok    bool
	panic bool
}

type scriptSource struct {
	mu     sync.Mutex
	script []capture
}

func (s *scriptSource) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.script) == 0
}

func (s *scriptSource) Capture(context.Context) (string, bool) {
	s.mu.Lock()
	c := s.script[0]
	s.script = s.script[1:]
	s.mu.Unlock()

	if c.panic {
		panic("microphone on fire")
	}
	return c.text, c.ok
}

type echoProc struct {
	mu   sync.Mutex
	seen []string
}

func (p *echoProc) Process(_ context.Context, text string) dispatch.Outcome {
	p.mu.Lock()
	p.seen = append(p.seen, text)
	p.mu.Unlock()

	if text == "quiet" {
		return dispatch.Outcome{}
	}
	return dispatch.Outcome{Response: "re: " + text, Effect: dispatch.EffectNone}
}

type recSpeaker struct {
	mu     sync.Mutex
	spoken []string
	err    error
}

func (s *recSpeaker) Speak(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return s.err
}

func TestLoopRunsFiniteSource(t *testing.T) {
	src := &scriptSource{script: []capture{
		{text: "set a timer for 5 seconds", ok: true},
		{ok: false},
		{panic: true},
		{text: "quiet", ok: true},
		{text: "play song", ok: true},
	}}
	proc := &echoProc{}
	sp := &recSpeaker{}

	l := New(src, proc, sp, WithPause(0))
	require.NoError(t, l.Run(context.Background()))

	assert.Equal(t, []string{"set a timer for 5 seconds", "quiet", "play song"}, proc.seen)
	assert.Equal(t, []string{"re: set a timer for 5 seconds", "re: play song"}, sp.spoken)
}

func TestLoopSpeakErrorDoesNotStop(t *testing.T) {
	src := &scriptSource{script: []capture{
		{text: "one", ok: true},
		{text: "two", ok: true},
	}}
	sp := &recSpeaker{err: errors.New("no audio device")}

	require.NoError(t, New(src, &echoProc{}, sp, WithPause(0)).Run(context.Background()))
	assert.Len(t, sp.spoken, 2)
}

func TestLoopStopsOnCancel(t *testing.T) {
	src := NewSocketSource(4)
	proc := &echoProc{}
	sp := &recSpeaker{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(src, proc, sp, WithPause(time.Millisecond)).Run(ctx) }()

	require.True(t, src.Push("hello"))
	require.Eventually(t, func() bool {
		sp.mu.Lock()
		defer sp.mu.Unlock()
		return len(sp.spoken) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, []string{"re: hello"}, sp.spoken)
}

func TestLoopHandle(t *testing.T) {
	sp := &recSpeaker{}
	l := New(NewSocketSource(1), &echoProc{}, sp)

	out := l.Handle(context.Background(), "stop the timer")
	assert.Equal(t, "re: stop the timer", out.Response)
	assert.Equal(t, []string{"re: stop the timer"}, sp.spoken)
}

func TestLoopWritesTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.txt")
	require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0o600))

	tr, err := OpenTranscript(path)
	require.NoError(t, err)

	src := &scriptSource{script: []capture{
		{text: "play song", ok: true},
		{ok: false},
		{text: "stop the timer", ok: true},
	}}
	require.NoError(t, New(src, &echoProc{}, &recSpeaker{}, WithPause(0), WithTranscript(tr)).Run(context.Background()))
	require.NoError(t, tr.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "earlier\nplay song\nstop the timer\n", string(data))
}

func TestOpenTranscriptBadPath(t *testing.T) {
	_, err := OpenTranscript(filepath.Join(t.TempDir(), "missing", "output.txt"))
	assert.Error(t, err)
}
