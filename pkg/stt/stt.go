// Package stt converts recorded speech to text, locally with whisper.cpp or
// remotely through the OpenAI API.
package stt

import (
	"context"
	"errors"
)

var ErrNoAudio = errors.New("no audio samples provided")

// Transcriber turns mono 16 kHz PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}
