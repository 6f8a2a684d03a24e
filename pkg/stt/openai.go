package stt

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"vox-assistant/pkg/audioconv"
)

// OpenAI transcribes through the hosted transcription endpoint.
type OpenAI struct {
	client   openai.Client
	language string
}

// NewOpenAI builds a remote transcriber. httpClient may be nil or a proxied client.
func NewOpenAI(apiKey, language string, httpClient *http.Client, extra ...option.RequestOption) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	opts = append(opts, extra...)
	if language == "auto" {
		language = ""
	}
	return &OpenAI{client: openai.NewClient(opts...), language: language}
}

func (o *OpenAI) Transcribe(ctx context.Context, pcm16k []float32) (string, error) {
	if len(pcm16k) == 0 {
		return "", ErrNoAudio
	}

	f, err := os.CreateTemp("", "vox-*.wav")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := audioconv.EncodeWAV16k(f, pcm16k); err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, "command.wav", "audio/wav"),
		Model: openai.AudioModelWhisper1,
	}
	if o.language != "" {
		params.Language = openai.String(o.language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
