package listen

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"vox-assistant/internal/audio"
	"vox-assistant/pkg/audioconv"
	"vox-assistant/pkg/stt"
)

type PhraseRecorder interface {
	Listen(ctx context.Context, opt audio.ListenOptions) ([]float32, error)
}

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

const restoreTimeout = 3 * time.Second

// MicSource records one phrase from the microphone and transcribes it.
type MicSource struct {
	Recorder    PhraseRecorder
	Transcriber stt.Transcriber
	Options     audio.ListenOptions

	Ducker Ducker       // optional
	Chime  func() error // optional, played before recording
}

func (m *MicSource) Capture(ctx context.Context) (string, bool) {
	if m.Chime != nil {
		if err := m.Chime(); err != nil {
			log.Warn("Failed to chime", "err", err)
		}
	}

	pcm, err := m.record(ctx)
	if err != nil {
		if errors.Is(err, audio.ErrNoSpeech) {
			log.Debug("No speech")
		} else if ctx.Err() == nil {
			log.Error("Failed to record", "err", err)
		}
		return "", false
	}
	log.Debug("Recorded", "samples", len(pcm))

	return transcribe(ctx, m.Transcriber, pcm)
}

func (m *MicSource) record(ctx context.Context) ([]float32, error) {
	if m.Ducker != nil {
		if err := m.Ducker.Duck(ctx); err != nil {
			log.Warn("Failed to duck audio", "err", err)
		}
		defer func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
			defer cancel()
			if err := m.Ducker.Restore(rctx); err != nil {
				log.Warn("Failed to restore audio", "err", err)
			}
		}()
	}
	return m.Recorder.Listen(ctx, m.Options)
}

// FileSource transcribes one audio file per cycle.
type FileSource struct {
	Transcriber stt.Transcriber
	Decode      audioconv.Options

	mu    sync.Mutex
	paths []string
}

func NewFileSource(tr stt.Transcriber, paths []string) *FileSource {
	return &FileSource{
		Transcriber: tr,
		Decode:      audioconv.Options{MaxSamples: 30 * audioconv.TargetRate},
		paths:       append([]string(nil), paths...),
	}
}

func (f *FileSource) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths) == 0
}

func (f *FileSource) Capture(ctx context.Context) (string, bool) {
	f.mu.Lock()
	if len(f.paths) == 0 {
		f.mu.Unlock()
		return "", false
	}
	path := f.paths[0]
	f.paths = f.paths[1:]
	f.mu.Unlock()

	pcm, err := audioconv.DecodeFile(ctx, path, f.Decode)
	if err != nil {
		log.Error("Failed to decode", "file", path, "err", err)
		return "", false
	}
	log.Debug("Decoded", "file", path, "samples", len(pcm))

	return transcribe(ctx, f.Transcriber, pcm)
}

// SocketSource yields texts pushed from the control socket.
type SocketSource struct {
	queue chan string
}

func NewSocketSource(size int) *SocketSource {
	return &SocketSource{queue: make(chan string, max(size, 1))}
}

// Push enqueues text; it reports false when the queue is full.
func (s *SocketSource) Push(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	select {
	case s.queue <- text:
		return true
	default:
		return false
	}
}

func (s *SocketSource) Capture(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case text := <-s.queue:
		return text, true
	}
}

func transcribe(ctx context.Context, tr stt.Transcriber, pcm []float32) (string, bool) {
	text, err := tr.Transcribe(ctx, pcm)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("Failed to transcribe", "err", err)
		}
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	log.Info("Transcribed", "text", text)
	return text, true
}
