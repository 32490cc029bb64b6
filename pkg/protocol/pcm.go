package protocol

import (
	"bytes"
	"encoding/binary"
	"math"

	wav "github.com/youpy/go-wav"
)

// DecodePCM16LE turns a raw little-endian int16 PCM byte slice into float32
// samples in [-1,1].
func DecodePCM16LE(b []byte) []float32 {
	n := len(b) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// EncodePCM16LE converts float32 samples in [-1,1] back to raw little-endian
// int16 PCM bytes, clipping out-of-range samples before scaling by 32767.
// Because DecodePCM16LE divides by 32768, a decode/encode round trip returns
// the original int16 value s exactly for |s| <= 16384 and s moved one step
// toward zero for larger magnitudes.
func EncodePCM16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(v))
	}
	return out
}

// WrapWAV wraps raw PCM16LE bytes in a single-chunk WAV container at the
// given sample rate and channel count, used for the TTS "WAV" negotiated
// format (§4.4 step 3) — no re-encoding to MP3 is ever performed server side.
func WrapWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	var buf bytes.Buffer
	writer := wav.NewWriter(&buf, uint32(len(pcm)/2/channels), uint16(channels), uint32(sampleRate), 16)
	if _, err := writer.Write(pcm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RMS computes the root-mean-square energy of a float32 sample block, the
// proxy the nearfield gate thresholds against (§4.3, §8 invariant 6). It is a
// pure function of its input slice: identical slices under an identical
// threshold always produce the identical gate outcome.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
