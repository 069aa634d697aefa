// live-probe streams a raw PCM file to a running server over the live
// websocket and prints what comes back. Useful for exercising the full
// STT -> rewrite -> TTS loop without a browser.
//
//	live-probe -url ws://localhost:8080/ws/session/<id> -token <jwt> -in speech.pcm
//
// The input must be mono 16-bit little-endian PCM at 16 kHz.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/plagiafix/plagiafix/internal/live"
	"github.com/plagiafix/plagiafix/internal/logger"
)

type printSink struct {
	log *logrus.Logger
}

func (p printSink) Play(buf live.PCMBuffer, at time.Time) func() {
	p.log.WithFields(logrus.Fields{
		"samples":     len(buf.Samples),
		"sample_rate": buf.SampleRate,
		"duration_ms": buf.Duration().Milliseconds(),
		"at":          at.Format(time.RFC3339Nano),
	}).Info("audio scheduled")
	return func() {}
}

func main() {
	_ = godotenv.Load()
	log := logger.New()

	var (
		url   = flag.String("url", "", "websocket session URL")
		token = flag.String("token", os.Getenv("PROBE_TOKEN"), "bearer token")
		in    = flag.String("in", "", "raw 16-bit LE PCM file (16 kHz mono)")
		mode  = flag.String("mode", "dictation", "session mode")
		wait  = flag.Duration("wait", 30*time.Second, "how long to wait for responses after sending")
	)
	flag.Parse()

	if *url == "" || *in == "" {
		fmt.Fprintln(os.Stderr, "usage: live-probe -url ws://... -token <jwt> -in speech.pcm")
		os.Exit(2)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.WithError(err).Fatal("cannot open input")
	}
	defer f.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	session := live.NewSession(
		live.NewReaderSource(f),
		live.WSDialer{URL: *url, Token: *token},
		live.NewScheduler(printSink{log: log}, time.Now),
		live.Callbacks{
			OnInputTranscription: func(text string) {
				log.WithField("text", text).Info("heard")
			},
			OnOutputTranscription: func(text string) {
				log.WithField("text", text).Info("rewritten")
			},
			OnTurnComplete: func(heard, said string) {
				log.WithFields(logrus.Fields{"heard": heard, "said": said}).Info("turn complete")
			},
			OnError: func(err error) {
				log.WithError(err).Error("session error")
			},
			OnClose: func() {
				close(done)
			},
		},
	)

	if err := session.Connect(ctx, *mode); err != nil {
		log.WithError(err).Fatal("connect failed")
	}

	select {
	case <-done:
	case <-ctx.Done():
		session.Stop()
		<-done
	case <-time.After(*wait):
		log.Info("wait elapsed, stopping")
		session.Stop()
		<-done
	}
}
