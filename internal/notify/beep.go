// Package notify plays the audible cues: the listening chime and the timer
// alarm.
package notify

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const DefaultChime = "beep.mp3"

var (
	speakerMu   sync.Mutex
	speakerRate beep.SampleRate
)

// Chime plays an mp3 file and blocks until it ends.
func Chime(path string) error {
	if path == "" {
		path = DefaultChime
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open chime: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode chime: %w", err)
	}
	defer streamer.Close()

	if err := initSpeaker(format.SampleRate); err != nil {
		return err
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done

	return nil
}

// initSpeaker opens the output device once per sample rate.
func initSpeaker(rate beep.SampleRate) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	if speakerRate == rate {
		return nil
	}
	if speakerRate != 0 {
		speaker.Close()
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		speakerRate = 0
		return fmt.Errorf("init speaker: %w", err)
	}
	speakerRate = rate
	return nil
}
