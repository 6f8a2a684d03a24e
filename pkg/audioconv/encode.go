package audioconv

import (
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV16k writes mono 16 kHz float32 PCM as 16-bit WAV.
func EncodeWAV16k(w io.WriteSeeker, pcm []float32) error {
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(math.Round(float64(min(max(s, -1), 1)) * math.MaxInt16))
	}

	enc := wav.NewEncoder(w, TargetRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: TargetRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
