package live

import (
	"math"
	"testing"
	"time"
)

func TestPCMRoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 0.999, -0.999}
	out := DecodePCM16(EncodePCM16(in))
	if len(out) != len(in) {
		t.Fatalf("length changed: %d != %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 1.0/32767+1e-6 {
			t.Fatalf("sample %d: %v -> %v", i, in[i], out[i])
		}
	}
}

func TestEncodePCM16ClampsOutOfRange(t *testing.T) {
	out := DecodePCM16(EncodePCM16([]float32{2.0, -2.0}))
	if out[0] != 1 || out[1] < -1.0001 {
		t.Fatalf("expected clamped samples, got %v", out)
	}
}

func TestDecodePCM16DropsOddByte(t *testing.T) {
	if got := DecodePCM16([]byte{0x00, 0x40, 0xFF}); len(got) != 1 {
		t.Fatalf("expected trailing byte dropped, got %d samples", len(got))
	}
}

func TestBufferDuration(t *testing.T) {
	b := PCMBuffer{Samples: make([]float32, CaptureSampleRate/2), SampleRate: CaptureSampleRate}
	if b.Duration() != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %v", b.Duration())
	}
	if (PCMBuffer{Samples: []float32{1}}).Duration() != 0 {
		t.Fatal("zero sample rate must yield zero duration")
	}
}

func TestAudioB64RoundTrip(t *testing.T) {
	in := []float32{0.25, -0.25, 0.75}
	enc := EncodeAudioB64(in)
	out, err := DecodeAudioB64(enc)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("length changed: %d", len(out))
	}
	if _, err := DecodeAudioB64("not base64!!"); err == nil {
		t.Fatal("expected decode failure")
	}
}
