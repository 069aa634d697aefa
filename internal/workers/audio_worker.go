package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/plagiafix/plagiafix/internal/pipeline"
	"github.com/plagiafix/plagiafix/internal/providers/llm"
	"github.com/plagiafix/plagiafix/internal/providers/stt"
	"github.com/plagiafix/plagiafix/internal/providers/tts"
	"github.com/plagiafix/plagiafix/internal/services"
)

// AudioWorkerPool drains the live audio stream: each chunk is
// transcribed, rewritten into natural prose, and optionally read back.
// Results are published on the session's response channel, which the
// websocket handler relays to the client.
type AudioWorkerPool struct {
	Redis      *redis.Client
	Chunks     services.ChunkService
	Sessions   services.SessionService
	NumWorkers int

	STT     stt.Provider
	Rewrite llm.Rewriter
	TTS     tts.Provider // nil disables readback

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AudioWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Chunks == nil || p.STT == nil || p.Rewrite == nil {
		return errors.New("AudioWorkerPool missing dependency: Redis/Chunks/STT/Rewrite must be set")
	}
	if p.Stream == "" {
		p.Stream = "audio:stream"
	}
	if p.Group == "" {
		p.Group = "audio-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 5
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AudioWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func normalizeDialect(v string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "", "en", "en-US":
		return "en-US"
	case "en-GB", "en-AU":
		return v
	default:
		return v
	}
}

func (p *AudioWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	chunkIndexStr := getStr("chunk_index")
	if sessionID == "" || chunkIndexStr == "" {
		return
	}
	chunkIndex, _ := strconv.ParseInt(chunkIndexStr, 10, 64)

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":    msg.ID,
		"session_id":  sessionID,
		"chunk_index": chunkIndex,
	})

	respCh := "session:" + sessionID + ":response"
	statusCh := "session:" + sessionID + ":status"

	dialect := normalizeDialect(getStr("dialect"))
	opts := pipeline.Options{
		Style:     getStr("style"),
		Dialect:   dialect,
		Citations: getStr("citations") == "true",
	}
	readback := getStr("readback") == "true"

	publishStatus := func(status, message string) {
		payload, _ := json.Marshal(map[string]any{
			"type":        "status",
			"status":      status,
			"message":     message,
			"chunk_index": chunkIndex,
		})
		_ = p.Redis.Publish(ctx, statusCh, string(payload)).Err()
	}

	// Fetch audio
	var audioBytes []byte
	if b64 := getStr("audio_base64"); b64 != "" {
		raw := b64
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:] // strip data:...;base64,
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			log.WithError(err).Warn("base64 decode failed")
			publishStatus("failed", "invalid audio_base64")
			return
		}
		audioBytes = decoded
	} else if url := getStr("audio_url"); url != "" {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.WithError(err).Warn("audio_url fetch failed")
			publishStatus("failed", "failed to fetch audio_url")
			return
		}
		defer resp.Body.Close()

		const maxBytes = 10 << 20
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
		if len(body) == 0 {
			publishStatus("failed", "empty audio")
			return
		}
		audioBytes = body
	} else {
		return
	}

	// STT
	_ = p.Chunks.MarkSTT(ctx, sessionID, chunkIndex, "", 0, "processing")
	publishStatus("processing", "stt processing")

	text, conf, err := p.STT.Transcribe(ctx, audioBytes, dialect)
	if err != nil {
		log.WithError(err).Error("stt failed")
		_ = p.Chunks.MarkSTT(ctx, sessionID, chunkIndex, "", 0, "failed")
		publishStatus("failed", "stt failed")
		return
	}

	_ = p.Chunks.MarkSTT(ctx, sessionID, chunkIndex, text, conf, "done")
	inPayload, _ := json.Marshal(map[string]any{
		"type":        "input_transcript",
		"chunk_index": chunkIndex,
		"text":        text,
		"confidence":  conf,
	})
	_ = p.Redis.Publish(ctx, respCh, string(inPayload)).Err()

	if strings.TrimSpace(text) == "" {
		publishStatus("done", "silent chunk")
		return
	}

	// Rewrite
	start := time.Now()
	_ = p.Chunks.MarkRewrite(ctx, sessionID, chunkIndex, "", "processing", 0)
	publishStatus("processing", "rewrite processing")

	raw, err := p.Rewrite.Rewrite(ctx, text, opts)
	if err != nil {
		log.WithError(err).Error("rewrite failed")
		_ = p.Chunks.MarkRewrite(ctx, sessionID, chunkIndex, "", "failed", time.Since(start).Milliseconds())
		publishStatus("failed", "rewrite failed")
		return
	}
	parsed, ok := pipeline.ParseRewrite(raw)
	if !ok {
		log.Error("rewrite returned unusable output")
		_ = p.Chunks.MarkRewrite(ctx, sessionID, chunkIndex, "", "failed", time.Since(start).Milliseconds())
		publishStatus("failed", "rewrite unusable")
		return
	}

	procMS := time.Since(start).Milliseconds()
	_ = p.Chunks.MarkRewrite(ctx, sessionID, chunkIndex, parsed.Text, "done", procMS)

	outPayload, _ := json.Marshal(map[string]any{
		"type":               "output_transcript",
		"chunk_index":        chunkIndex,
		"text":               parsed.Text,
		"processing_time_ms": procMS,
	})
	_ = p.Redis.Publish(ctx, respCh, string(outPayload)).Err()

	// TTS readback
	if readback && p.TTS != nil {
		audio, rate, err := p.TTS.Synthesize(ctx, parsed.Text, dialect)
		if err != nil {
			log.WithError(err).Warn("tts failed, skipping readback")
		} else {
			audioPayload, _ := json.Marshal(map[string]any{
				"type":         "audio",
				"chunk_index":  chunkIndex,
				"audio_base64": base64.StdEncoding.EncodeToString(audio),
				"sample_rate":  rate,
			})
			_ = p.Redis.Publish(ctx, respCh, string(audioPayload)).Err()
		}
	}

	if p.Sessions != nil {
		_ = p.Sessions.MarkTurn(ctx, sessionID)
	}

	donePayload, _ := json.Marshal(map[string]any{
		"type":        "turn_complete",
		"chunk_index": chunkIndex,
	})
	_ = p.Redis.Publish(ctx, respCh, string(donePayload)).Err()
	publishStatus("done", "chunk processed")
}
