package services

import (
	"context"
	"time"

	"github.com/plagiafix/plagiafix/internal/models"
	mongorepo "github.com/plagiafix/plagiafix/internal/repositories/mongo"
	"github.com/plagiafix/plagiafix/internal/utils"
)

type ChunkService interface {
	InsertAudioChunk(ctx context.Context, sessionID string, chunkIndex int64, audioURL, audioBase64 *string) (*models.LiveChunk, error)
	MarkSTT(ctx context.Context, sessionID string, chunkIndex int64, transcript string, confidence float64, status string) error
	MarkRewrite(ctx context.Context, sessionID string, chunkIndex int64, text string, status string, processingMS int64) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.LiveChunk, error)
}

type chunkService struct {
	chunks mongorepo.ChunkRepository
	ttl    time.Duration
}

func NewChunkService(chunks mongorepo.ChunkRepository, ttl time.Duration) ChunkService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &chunkService{chunks: chunks, ttl: ttl}
}

func (s *chunkService) InsertAudioChunk(ctx context.Context, sessionID string, chunkIndex int64, audioURL, audioBase64 *string) (*models.LiveChunk, error) {
	const op = "ChunkService.InsertAudioChunk"

	if sessionID == "" || chunkIndex <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required and chunk_index must be > 0", nil)
	}

	now := time.Now().UTC()
	doc := &models.LiveChunk{
		SessionID:   sessionID,
		ChunkIndex:  chunkIndex,
		AudioURL:    audioURL,
		AudioBase64: audioBase64,

		STTStatus:     "pending",
		RewriteStatus: "pending",

		Timestamp: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.chunks.InsertChunk(ctx, doc); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert audio chunk", err)
	}
	return doc, nil
}

func (s *chunkService) MarkSTT(ctx context.Context, sessionID string, chunkIndex int64, transcript string, confidence float64, status string) error {
	const op = "ChunkService.MarkSTT"

	if sessionID == "" || chunkIndex <= 0 || status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id, chunk_index (>0), and status are required", nil)
	}
	if err := s.chunks.UpdateSTT(ctx, sessionID, chunkIndex, transcript, confidence, status); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update stt fields", err)
	}
	return nil
}

func (s *chunkService) MarkRewrite(ctx context.Context, sessionID string, chunkIndex int64, text string, status string, processingMS int64) error {
	const op = "ChunkService.MarkRewrite"

	if sessionID == "" || chunkIndex <= 0 || status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id, chunk_index (>0), and status are required", nil)
	}
	if err := s.chunks.UpdateRewrite(ctx, sessionID, chunkIndex, text, status, processingMS); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update rewrite fields", err)
	}
	return nil
}

func (s *chunkService) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.LiveChunk, error) {
	const op = "ChunkService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.chunks.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list live chunks", err)
	}
	return out, nil
}
