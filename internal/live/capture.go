package live

import (
	"context"
	"io"
	"sync"
)

// ReaderSource feeds capture frames from a stream of raw 16-bit LE PCM at
// CaptureSampleRate, e.g. a file or a piped sox/arecord process. It stands
// in for a real microphone wherever one is available as a byte stream.
type ReaderSource struct {
	R         io.Reader
	FrameSize int // samples per frame, default 1600 (100ms)

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{R: r, FrameSize: 1600, stopped: make(chan struct{})}
}

func (s *ReaderSource) Start(ctx context.Context) (<-chan []float32, error) {
	if s.R == nil {
		return nil, ErrPermissionDenied
	}
	frameSize := s.FrameSize
	if frameSize <= 0 {
		frameSize = 1600
	}

	out := make(chan []float32)
	go func() {
		defer close(out)
		buf := make([]byte, frameSize*2)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopped:
				return
			default:
			}

			n, err := io.ReadFull(s.R, buf)
			if n > 0 {
				frame := DecodePCM16(buf[:n-n%2])
				select {
				case out <- frame:
				case <-ctx.Done():
					return
				case <-s.stopped:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return out, nil
}

func (s *ReaderSource) Stop() error {
	s.stopOnce.Do(func() { close(s.stopped) })
	return nil
}
