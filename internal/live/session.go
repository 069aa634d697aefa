package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/plagiafix/plagiafix/internal/utils"
)

// ErrPermissionDenied is returned by a CaptureSource when the user refuses
// microphone access. It must stay distinguishable from network failures.
var ErrPermissionDenied = errors.New("microphone permission denied")

// CaptureSource abstracts the input device: Start yields fixed-size frames
// of float samples at CaptureSampleRate until the context ends or Stop is
// called. Stop must be safe to call more than once.
type CaptureSource interface {
	Start(ctx context.Context) (<-chan []float32, error)
	Stop() error
}

// Channel is the persistent bidirectional transport. Send and Receive may
// be used from different goroutines; Close must be idempotent.
type Channel interface {
	Send(frame ClientFrame) error
	Receive() (ServerFrame, error)
	Close() error
}

// Dialer opens a Channel configured for the requested voice mode.
type Dialer interface {
	Dial(ctx context.Context, mode string) (Channel, error)
}

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateStreaming
	StateInterrupted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateStreaming:
		return "streaming"
	case StateInterrupted:
		return "interrupted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Callbacks surface session events to the embedding UI. All are optional.
type Callbacks struct {
	OnInputTranscription  func(fragment string)
	OnOutputTranscription func(fragment string)
	OnTurnComplete        func(heard, said string)
	OnError               func(err error)
	OnClose               func()
}

// Session is the live audio humanizer: it streams microphone frames up the
// channel and plays the synthesized reply back gaplessly. Capture and
// playback run on independent goroutines; the only state they share is the
// append-only transcript buffers and the scheduler's monotonic cursor.
type Session struct {
	capture CaptureSource
	dialer  Dialer
	player  *Scheduler
	cb      Callbacks

	state   atomic.Int32
	channel Channel
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	heard  string
	said   string
	chunks int64
}

func NewSession(capture CaptureSource, dialer Dialer, player *Scheduler, cb Callbacks) *Session {
	return &Session{capture: capture, dialer: dialer, player: player, cb: cb}
}

func (s *Session) State() State { return State(s.state.Load()) }

// Connect acquires the microphone, opens the channel, and starts the
// upload and receive loops. Microphone refusal surfaces as
// PERMISSION_DENIED; anything else as CHANNEL_ERROR.
func (s *Session) Connect(ctx context.Context, mode string) error {
	const op = "live.Session.Connect"

	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return utils.E(utils.CodeConflict, op, "session already started", nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	frames, err := s.capture.Start(ctx)
	if err != nil {
		s.state.Store(int32(StateClosed))
		cancel()
		if errors.Is(err, ErrPermissionDenied) {
			return utils.E(utils.CodePermissionDenied, op, "microphone access was denied", err)
		}
		return utils.E(utils.CodeChannelError, op, "failed to start audio capture", err)
	}

	ch, err := s.dialer.Dial(ctx, mode)
	if err != nil {
		_ = s.capture.Stop()
		s.state.Store(int32(StateClosed))
		cancel()
		return utils.E(utils.CodeChannelError, op, "failed to open live channel", err)
	}
	s.channel = ch

	if err := ch.Send(ClientFrame{Type: FrameStart, Mode: mode}); err != nil {
		_ = s.capture.Stop()
		_ = ch.Close()
		s.state.Store(int32(StateClosed))
		cancel()
		return utils.E(utils.CodeChannelError, op, "failed to open live channel", err)
	}

	s.state.Store(int32(StateOpen))

	s.wg.Add(2)
	go s.sendLoop(ctx, frames)
	go s.recvLoop()
	return nil
}

// Stop tears the session down: input disconnected, pending playback
// discarded, channel closed. Safe to call from any state, any number of
// times.
func (s *Session) Stop() {
	s.shutdown(nil)
	s.wg.Wait()
}

func (s *Session) sendLoop(ctx context.Context, frames <-chan []float32) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			s.mu.Lock()
			s.chunks++
			n := s.chunks
			s.mu.Unlock()
			err := s.channel.Send(ClientFrame{
				Type:        FrameAudioChunk,
				ChunkIndex:  n,
				AudioBase64: EncodeAudioB64(frame),
			})
			if err != nil {
				s.shutdown(err)
				return
			}
		}
	}
}

func (s *Session) recvLoop() {
	defer s.wg.Done()
	for {
		frame, err := s.channel.Receive()
		if err != nil {
			if s.State() != StateClosed {
				s.shutdown(err)
			}
			return
		}

		switch frame.Type {
		case FrameInputTranscript:
			s.mu.Lock()
			s.heard += frame.Text
			s.mu.Unlock()
			if s.cb.OnInputTranscription != nil {
				s.cb.OnInputTranscription(frame.Text)
			}

		case FrameOutputTranscript:
			s.mu.Lock()
			s.said += frame.Text
			s.mu.Unlock()
			if s.cb.OnOutputTranscription != nil {
				s.cb.OnOutputTranscription(frame.Text)
			}

		case FrameTurnComplete:
			s.mu.Lock()
			heard, said := s.heard, s.said
			s.heard, s.said = "", ""
			s.mu.Unlock()
			if s.cb.OnTurnComplete != nil {
				s.cb.OnTurnComplete(heard, said)
			}

		case FrameAudio:
			samples, derr := DecodeAudioB64(frame.AudioBase64)
			if derr != nil {
				continue // a corrupt buffer is dropped, not fatal
			}
			rate := frame.SampleRate
			if rate <= 0 {
				rate = CaptureSampleRate
			}
			s.player.Schedule(PCMBuffer{Samples: samples, SampleRate: rate})
			s.state.CompareAndSwap(int32(StateOpen), int32(StateStreaming))
			s.state.CompareAndSwap(int32(StateInterrupted), int32(StateStreaming))

		case FrameInterrupted:
			s.player.Interrupt()
			s.state.CompareAndSwap(int32(StateStreaming), int32(StateInterrupted))

		case FrameError:
			s.shutdown(utils.E(utils.CodeChannelError, "live.Session", frame.Message, nil))
			return
		}
	}
}

// shutdown releases every resource exactly once. err != nil means an
// unrecoverable failure and fires OnError before OnClose.
func (s *Session) shutdown(err error) {
	s.once.Do(func() {
		s.state.Store(int32(StateClosed))
		if s.cancel != nil {
			s.cancel()
		}
		_ = s.capture.Stop()
		if s.player != nil {
			s.player.Interrupt()
		}
		if s.channel != nil {
			_ = s.channel.Send(ClientFrame{Type: FrameEndSession})
			_ = s.channel.Close()
		}
		if err != nil && s.cb.OnError != nil {
			s.cb.OnError(err)
		}
		if s.cb.OnClose != nil {
			s.cb.OnClose()
		}
	})
}
