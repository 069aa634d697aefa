package tts

import "context"

type Provider interface {
	// Synthesize returns mono 16-bit little-endian PCM and its sample rate.
	Synthesize(ctx context.Context, text string, language string) (audio []byte, sampleRate int, err error)
	Close() error
}
