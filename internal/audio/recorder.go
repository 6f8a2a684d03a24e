package audio

import (
	"context"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

type Recorder struct {
	silenceRMS float64
	silenceEnd time.Duration
	calibrate  time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{
		silenceRMS: 0.015,
		silenceEnd: 600 * time.Millisecond,
		calibrate:  500 * time.Millisecond,
	}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

type ListenOptions struct {
	StartTimeout time.Duration // give up when no speech starts in time
	PhraseLimit  time.Duration // cut a phrase that runs longer
}

// Listen records one phrase from the default input as 16 kHz mono PCM.
// It returns ErrNoSpeech when nobody speaks within StartTimeout.
func (r *Recorder) Listen(ctx context.Context, opt ListenOptions) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	seg := &segmenter{
		frameDur:     time.Second * frameSize / SampleRate,
		minThreshold: r.silenceRMS,
		calibrate:    r.calibrate,
		startTimeout: opt.StartTimeout,
		phraseLimit:  opt.PhraseLimit,
		silenceEnd:   r.silenceEnd,
		out:          make([]float32, 0, SampleRate*3),
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}

		done, err := seg.push(buf)
		if err != nil {
			return nil, err
		}
		if done {
			log.Debug("Phrase captured", "samples", len(seg.out), "threshold", seg.threshold)
			return seg.out, nil
		}
	}
}
