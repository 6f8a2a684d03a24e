package audio

import (
	"errors"
	"math"
	"time"
)

var ErrNoSpeech = errors.New("no speech before timeout")

// segmenter cuts one phrase out of a frame stream by RMS energy. The first
// frames calibrate the noise floor.
type segmenter struct {
	frameDur     time.Duration
	minThreshold float64
	calibrate    time.Duration
	startTimeout time.Duration
	phraseLimit  time.Duration
	silenceEnd   time.Duration

	threshold float64
	noise     float64
	noiseN    int

	elapsed  time.Duration
	speech   time.Duration
	silence  time.Duration
	speaking bool

	out []float32
}

// push consumes one frame and reports whether the phrase is complete.
func (s *segmenter) push(frame []float32) (bool, error) {
	rms := frameRMS(frame)
	s.elapsed += s.frameDur

	if s.elapsed <= s.calibrate {
		s.noise += rms
		s.noiseN++
		s.threshold = math.Max(s.minThreshold, 2.5*s.noise/float64(s.noiseN))
		return false, nil
	}
	if s.threshold == 0 {
		s.threshold = s.minThreshold
	}

	if !s.speaking {
		if rms <= s.threshold {
			if s.startTimeout > 0 && s.elapsed-s.calibrate >= s.startTimeout {
				return true, ErrNoSpeech
			}
			return false, nil
		}
		s.speaking = true
	}

	s.out = append(s.out, frame...)
	s.speech += s.frameDur

	if rms > s.threshold {
		s.silence = 0
	} else {
		s.silence += s.frameDur
		if s.silence >= s.silenceEnd {
			return true, nil
		}
	}

	if s.phraseLimit > 0 && s.speech >= s.phraseLimit {
		return true, nil
	}

	return false, nil
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
