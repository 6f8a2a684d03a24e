package listen

import (
	"fmt"
	"os"
	"sync"
)

// Transcript appends every captured command to a text file, one per line.
type Transcript struct {
	mu sync.Mutex
	f  *os.File
}

func OpenTranscript(path string) (*Transcript, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	return &Transcript{f: f}, nil
}

func (t *Transcript) Append(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintln(t.f, text)
	return err
}

func (t *Transcript) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.f.Close()
}
