package live

import (
	"encoding/base64"
	"encoding/binary"
	"time"
)

// Audio crosses the channel as base64-wrapped 16-bit little-endian PCM.
// Capture runs at 16 kHz mono; synthesized replies arrive at whatever rate
// the voice provider emits, carried per buffer.

const CaptureSampleRate = 16000

// EncodePCM16 converts float samples in [-1, 1] to 16-bit LE bytes,
// clamping out-of-range values.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// DecodePCM16 converts 16-bit LE bytes back to float samples. A trailing
// odd byte is dropped.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(v) / 32767
	}
	return out
}

// PCMBuffer is one playable audio buffer.
type PCMBuffer struct {
	Samples    []float32
	SampleRate int
}

func (b PCMBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

func EncodeAudioB64(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodePCM16(samples))
}

func DecodeAudioB64(s string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return DecodePCM16(raw), nil
}
