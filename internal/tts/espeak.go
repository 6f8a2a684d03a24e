// Package tts speaks responses through espeak-ng.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, const char *voice)
{
	if (!text || !voice)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE specs = { .languages = voice };
	espeak_SetVoiceByProperties(&specs);

	espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"unsafe"
)

const DefaultVoice = "en"

// Speaker serializes playback; espeak-ng keeps global state.
type Speaker struct {
	mu    sync.Mutex
	voice string
}

func NewSpeaker(voice string) *Speaker {
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = DefaultVoice
	}
	return &Speaker{voice: voice}
}

func (s *Speaker) Voice() string { return s.voice }

// Speak blocks until the text has been played.
func (s *Speaker) Speak(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	cvoice := C.CString(s.voice)
	defer C.free(unsafe.Pointer(cvoice))

	log.Debug("Speaking", "voice", s.voice, "text", text)
	if rc := C.espeak_say(ctext, cvoice); rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}
