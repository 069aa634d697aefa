package live

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/plagiafix/plagiafix/internal/utils"
)

type fakeCapture struct {
	mu      sync.Mutex
	frames  chan []float32
	stops   int
	denyErr error
}

func newFakeCapture() *fakeCapture {
	return &fakeCapture{frames: make(chan []float32, 16)}
}

func (f *fakeCapture) Start(context.Context) (<-chan []float32, error) {
	if f.denyErr != nil {
		return nil, f.denyErr
	}
	return f.frames, nil
}

func (f *fakeCapture) Stop() error {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	return nil
}

func (f *fakeCapture) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// fakeChannel hands scripted server frames to the session and records what
// the session sent.
type fakeChannel struct {
	mu     sync.Mutex
	sent   []ClientFrame
	in     chan ServerFrame
	closed chan struct{}
	once   sync.Once
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{in: make(chan ServerFrame, 16), closed: make(chan struct{})}
}

func (f *fakeChannel) Send(frame ClientFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.closed:
		return errors.New("channel closed")
	default:
	}
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeChannel) Receive() (ServerFrame, error) {
	select {
	case frame := <-f.in:
		return frame, nil
	case <-f.closed:
		return ServerFrame{}, io.EOF
	}
}

func (f *fakeChannel) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeChannel) sentFrames() []ClientFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ClientFrame, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeDialer struct {
	ch  *fakeChannel
	err error
}

func (d fakeDialer) Dial(context.Context, string) (Channel, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.ch, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSessionPermissionDeniedIsDistinct(t *testing.T) {
	cap := newFakeCapture()
	cap.denyErr = ErrPermissionDenied
	s := NewSession(cap, fakeDialer{ch: newFakeChannel()}, NewScheduler(&fakeSink{}, nil), Callbacks{})

	err := s.Connect(context.Background(), "casual")
	if !utils.IsCode(err, utils.CodePermissionDenied) {
		t.Fatalf("expected PERMISSION_DENIED, got %v", err)
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed state, got %v", s.State())
	}
}

func TestSessionDialFailureIsChannelError(t *testing.T) {
	cap := newFakeCapture()
	s := NewSession(cap, fakeDialer{err: errors.New("refused")}, NewScheduler(&fakeSink{}, nil), Callbacks{})

	err := s.Connect(context.Background(), "casual")
	if !utils.IsCode(err, utils.CodeChannelError) {
		t.Fatalf("expected CHANNEL_ERROR, got %v", err)
	}
	if cap.stopCount() == 0 {
		t.Fatal("microphone must be released when the dial fails")
	}
}

func TestSessionStreamsCapturedFrames(t *testing.T) {
	cap := newFakeCapture()
	ch := newFakeChannel()
	s := NewSession(cap, fakeDialer{ch: ch}, NewScheduler(&fakeSink{}, nil), Callbacks{})

	if err := s.Connect(context.Background(), "formal"); err != nil {
		t.Fatal(err)
	}
	cap.frames <- []float32{0.1, -0.1}
	cap.frames <- []float32{0.2, -0.2}

	waitFor(t, func() bool { return len(ch.sentFrames()) >= 3 }) // start + 2 chunks
	frames := ch.sentFrames()
	if frames[0].Type != FrameStart || frames[0].Mode != "formal" {
		t.Fatalf("expected start frame first, got %+v", frames[0])
	}
	if frames[1].ChunkIndex != 1 || frames[2].ChunkIndex != 2 {
		t.Fatalf("chunk indexes must increase from 1: %+v", frames[1:])
	}
	if frames[1].AudioBase64 == "" {
		t.Fatal("audio chunk must carry encoded PCM")
	}
	s.Stop()
}

func TestSessionTurnCompleteFlushesTranscripts(t *testing.T) {
	ch := newFakeChannel()
	var mu sync.Mutex
	var turns [][2]string
	var inputs, outputs []string
	s := NewSession(newFakeCapture(), fakeDialer{ch: ch}, NewScheduler(&fakeSink{}, nil), Callbacks{
		OnInputTranscription:  func(f string) { mu.Lock(); inputs = append(inputs, f); mu.Unlock() },
		OnOutputTranscription: func(f string) { mu.Lock(); outputs = append(outputs, f); mu.Unlock() },
		OnTurnComplete:        func(h, s string) { mu.Lock(); turns = append(turns, [2]string{h, s}); mu.Unlock() },
	})
	if err := s.Connect(context.Background(), "casual"); err != nil {
		t.Fatal(err)
	}

	ch.in <- ServerFrame{Type: FrameInputTranscript, Text: "hello "}
	ch.in <- ServerFrame{Type: FrameInputTranscript, Text: "there"}
	ch.in <- ServerFrame{Type: FrameOutputTranscript, Text: "hi!"}
	ch.in <- ServerFrame{Type: FrameTurnComplete}
	ch.in <- ServerFrame{Type: FrameInputTranscript, Text: "again"}
	ch.in <- ServerFrame{Type: FrameTurnComplete}

	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(turns) == 2 })
	mu.Lock()
	defer mu.Unlock()
	if turns[0] != [2]string{"hello there", "hi!"} {
		t.Fatalf("first turn wrong: %v", turns[0])
	}
	if turns[1] != [2]string{"again", ""} {
		t.Fatalf("buffers must be cleared between turns: %v", turns[1])
	}
	if len(inputs) != 3 || len(outputs) != 1 {
		t.Fatalf("fragment callbacks wrong: in=%v out=%v", inputs, outputs)
	}
	s.Stop()
}

func TestSessionSchedulesAudioAndHandlesInterrupt(t *testing.T) {
	ch := newFakeChannel()
	now := time.Unix(0, 0)
	sink := &fakeSink{}
	player := NewScheduler(sink, func() time.Time { return now })
	s := NewSession(newFakeCapture(), fakeDialer{ch: ch}, player, Callbacks{})
	if err := s.Connect(context.Background(), "casual"); err != nil {
		t.Fatal(err)
	}

	oneSec := EncodeAudioB64(make([]float32, CaptureSampleRate))
	ch.in <- ServerFrame{Type: FrameAudio, AudioBase64: oneSec}
	ch.in <- ServerFrame{Type: FrameAudio, AudioBase64: oneSec}
	waitFor(t, func() bool { return player.Cursor().Equal(now.Add(2 * time.Second)) })
	if s.State() != StateStreaming {
		t.Fatalf("expected streaming state, got %v", s.State())
	}

	ch.in <- ServerFrame{Type: FrameInterrupted}
	waitFor(t, func() bool { return player.Cursor().Equal(now) })
	if s.State() != StateInterrupted {
		t.Fatalf("expected interrupted state, got %v", s.State())
	}

	ch.in <- ServerFrame{Type: FrameAudio, AudioBase64: oneSec}
	waitFor(t, func() bool { return player.Cursor().Equal(now.Add(time.Second)) })
	if s.State() != StateStreaming {
		t.Fatalf("audio after interrupt should resume streaming, got %v", s.State())
	}
	s.Stop()
}

func TestSessionStopIsIdempotent(t *testing.T) {
	cap := newFakeCapture()
	ch := newFakeChannel()
	closes := 0
	s := NewSession(cap, fakeDialer{ch: ch}, NewScheduler(&fakeSink{}, nil), Callbacks{
		OnClose: func() { closes++ },
	})
	if err := s.Connect(context.Background(), "casual"); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	s.Stop()
	if closes != 1 {
		t.Fatalf("OnClose must fire exactly once, got %d", closes)
	}
	if cap.stopCount() == 0 {
		t.Fatal("capture must be stopped")
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed, got %v", s.State())
	}
}

func TestSessionServerErrorTearsDown(t *testing.T) {
	ch := newFakeChannel()
	var mu sync.Mutex
	var gotErr error
	closed := false
	s := NewSession(newFakeCapture(), fakeDialer{ch: ch}, NewScheduler(&fakeSink{}, nil), Callbacks{
		OnError: func(err error) { mu.Lock(); gotErr = err; mu.Unlock() },
		OnClose: func() { mu.Lock(); closed = true; mu.Unlock() },
	})
	if err := s.Connect(context.Background(), "casual"); err != nil {
		t.Fatal(err)
	}

	ch.in <- ServerFrame{Type: FrameError, Message: "backend fell over"}
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return closed })
	mu.Lock()
	defer mu.Unlock()
	if !utils.IsCode(gotErr, utils.CodeChannelError) {
		t.Fatalf("expected CHANNEL_ERROR via OnError, got %v", gotErr)
	}
	if s.State() != StateClosed {
		t.Fatalf("expected closed, got %v", s.State())
	}
}

func TestSessionCannotConnectTwice(t *testing.T) {
	ch := newFakeChannel()
	s := NewSession(newFakeCapture(), fakeDialer{ch: ch}, NewScheduler(&fakeSink{}, nil), Callbacks{})
	if err := s.Connect(context.Background(), "casual"); err != nil {
		t.Fatal(err)
	}
	if err := s.Connect(context.Background(), "casual"); !utils.IsCode(err, utils.CodeConflict) {
		t.Fatalf("second connect must fail with CONFLICT, got %v", err)
	}
	s.Stop()
}
