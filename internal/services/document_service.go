package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/plagiafix/plagiafix/internal/cache"
	"github.com/plagiafix/plagiafix/internal/extract"
	"github.com/plagiafix/plagiafix/internal/fingerprint"
	"github.com/plagiafix/plagiafix/internal/models"
	"github.com/plagiafix/plagiafix/internal/pipeline"
	pgrepo "github.com/plagiafix/plagiafix/internal/repositories/postgres"
	"github.com/plagiafix/plagiafix/internal/storage"
	"github.com/plagiafix/plagiafix/internal/utils"
)

const (
	analysisCost = 1
	humanizeCost = 2

	resultTTL = 7 * 24 * time.Hour
)

// AnalysisReport pairs the stored report row with the full pipeline
// result for the response body.
type AnalysisReport struct {
	Report *models.Report           `json:"report"`
	Result *pipeline.AnalysisResult `json:"result"`
}

type HumanizeReport struct {
	Report *models.Report          `json:"report"`
	Result *pipeline.RewriteResult `json:"result"`
}

type DocumentService interface {
	Analyze(ctx context.Context, userID, fileName string, data []byte, opts pipeline.Options, progress pipeline.ProgressFunc) (*AnalysisReport, error)
	Humanize(ctx context.Context, userID, fileName string, data []byte, opts pipeline.Options, progress pipeline.ProgressFunc) (*HumanizeReport, error)
	GetReport(ctx context.Context, userID, reportID string) (*models.Report, error)
	ListReports(ctx context.Context, userID string, limit int) ([]models.Report, error)
	SimilarReports(ctx context.Context, userID, reportID string, limit int) ([]models.Report, error)
}

type documentService struct {
	engine    *pipeline.Engine
	extractor *extract.Registry
	reports   pgrepo.ReportRepository
	documents pgrepo.DocumentRepository
	credits   CreditService
	cache     cache.Cache
	store     storage.Store
	log       *logrus.Logger
}

func NewDocumentService(
	engine *pipeline.Engine,
	extractor *extract.Registry,
	reports pgrepo.ReportRepository,
	documents pgrepo.DocumentRepository,
	credits CreditService,
	c cache.Cache,
	store storage.Store,
	log *logrus.Logger,
) DocumentService {
	return &documentService{
		engine:    engine,
		extractor: extractor,
		reports:   reports,
		documents: documents,
		credits:   credits,
		cache:     c,
		store:     store,
		log:       log,
	}
}

func (s *documentService) Analyze(ctx context.Context, userID, fileName string, data []byte, opts pipeline.Options, progress pipeline.ProgressFunc) (*AnalysisReport, error) {
	const op = "DocumentService.Analyze"

	text, err := s.prepare(ctx, op, userID, fileName, data)
	if err != nil {
		return nil, err
	}

	key := cache.ResultKey("analysis", text, opts.Style, opts.Dialect, opts.Citations)
	var result pipeline.AnalysisResult
	cached := false
	if s.cache != nil {
		cached, _ = s.cache.GetJSON(ctx, key, &result)
	}

	if !cached {
		if err := s.credits.Spend(ctx, userID, analysisCost, "analysis"); err != nil {
			return nil, err
		}
		out, err := s.engine.AnalyzeDocument(ctx, text, opts, progress)
		if err != nil {
			return nil, err
		}
		result = *out
		if s.cache != nil {
			if err := s.cache.SetJSON(ctx, key, result, resultTTL); err != nil {
				s.log.WithError(err).Warn("failed to cache analysis result")
			}
		}
	}

	issues, _ := json.Marshal(result.Issues)
	forensics, _ := json.Marshal(result.Forensics)
	meta, _ := json.Marshal(map[string]any{
		"options": opts,
		"cached":  cached,
	})

	rep := &models.Report{
		ID:              uuid.NewString(),
		UserID:          userID,
		Kind:            models.ReportAnalysis,
		FileName:        fileName,
		SourceDigest:    digest(text),
		PlagiarismScore: float64(result.PlagiarismScore),
		AIScore:         float64(result.AIScore),
		Critique:        result.Critique,
		Issues:          datatypes.JSON(issues),
		Forensics:       datatypes.JSON(forensics),
		Metadata:        datatypes.JSON(meta),
		Fingerprint:     pgvector.NewVector(fingerprint.Vector(text)),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.reports.Insert(ctx, rep); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist report", err)
	}

	return &AnalysisReport{Report: rep, Result: &result}, nil
}

func (s *documentService) Humanize(ctx context.Context, userID, fileName string, data []byte, opts pipeline.Options, progress pipeline.ProgressFunc) (*HumanizeReport, error) {
	const op = "DocumentService.Humanize"

	text, err := s.prepare(ctx, op, userID, fileName, data)
	if err != nil {
		return nil, err
	}

	key := cache.ResultKey("humanize", text, opts.Style, opts.Dialect, opts.Citations)
	var result pipeline.RewriteResult
	cached := false
	if s.cache != nil {
		cached, _ = s.cache.GetJSON(ctx, key, &result)
	}

	if !cached {
		if err := s.credits.Spend(ctx, userID, humanizeCost, "humanize"); err != nil {
			return nil, err
		}
		out, err := s.engine.HumanizeDocument(ctx, text, opts, progress)
		if err != nil {
			return nil, err
		}
		result = *out
		if s.cache != nil {
			if err := s.cache.SetJSON(ctx, key, result, resultTTL); err != nil {
				s.log.WithError(err).Warn("failed to cache humanize result")
			}
		}
	}

	reportID := uuid.NewString()

	// keep the full rewrite in object storage; postgres holds the pointer
	var storedPath string
	if s.store != nil {
		objectName := fmt.Sprintf("rewrites/%s/%s.txt", userID, reportID)
		storedPath, err = s.store.Upload(ctx, objectName, "text/plain; charset=utf-8", bytes.NewReader([]byte(result.Text)))
		if err != nil {
			s.log.WithError(err).Warn("failed to store rewritten text")
			storedPath = ""
		}
	}

	biblio, _ := json.Marshal(result.Bibliography)
	meta, _ := json.Marshal(map[string]any{
		"options":      opts,
		"cached":       cached,
		"bibliography": json.RawMessage(biblio),
	})

	rep := &models.Report{
		ID:            reportID,
		UserID:        userID,
		Kind:          models.ReportHumanize,
		FileName:      fileName,
		SourceDigest:  digest(text),
		Metadata:      datatypes.JSON(meta),
		RewrittenPath: storedPath,
		Improvements:  result.Improvements,
		Fingerprint:   pgvector.NewVector(fingerprint.Vector(text)),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.reports.Insert(ctx, rep); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist report", err)
	}

	return &HumanizeReport{Report: rep, Result: &result}, nil
}

func (s *documentService) GetReport(ctx context.Context, userID, reportID string) (*models.Report, error) {
	const op = "DocumentService.GetReport"

	if userID == "" || reportID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and report_id are required", nil)
	}
	rep, err := s.reports.GetByID(ctx, userID, reportID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "report not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get report", err)
	}
	return rep, nil
}

func (s *documentService) ListReports(ctx context.Context, userID string, limit int) ([]models.Report, error) {
	const op = "DocumentService.ListReports"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.reports.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list reports", err)
	}
	return rows, nil
}

func (s *documentService) SimilarReports(ctx context.Context, userID, reportID string, limit int) ([]models.Report, error) {
	const op = "DocumentService.SimilarReports"

	rep, err := s.GetReport(ctx, userID, reportID)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.NearestByFingerprint(ctx, userID, rep.Fingerprint, limit+1)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to query similar reports", err)
	}

	// the report itself is its own nearest neighbour
	out := rows[:0]
	for _, r := range rows {
		if r.ID != rep.ID {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// prepare validates the upload, extracts its text, and records the raw
// file in object storage for later re-runs.
func (s *documentService) prepare(ctx context.Context, op, userID, fileName string, data []byte) (string, error) {
	if userID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if len(data) == 0 {
		return "", utils.E(utils.CodeInvalidArgument, op, "empty upload", nil)
	}

	text, err := s.extractor.Extract(data, fileName)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			return "", utils.E(utils.CodeInvalidArgument, op, "unsupported file format", err)
		case errors.Is(err, extract.ErrEmptyDocument):
			return "", utils.E(utils.CodeInvalidArgument, op, "document has no extractable text", err)
		default:
			return "", utils.E(utils.CodeInvalidArgument, op, "failed to read document", err)
		}
	}

	if s.store != nil && s.documents != nil {
		docID := uuid.NewString()
		objectName := fmt.Sprintf("uploads/%s/%s-%s", userID, docID, fileName)
		storedPath, err := s.store.Upload(ctx, objectName, "application/octet-stream", bytes.NewReader(data))
		if err != nil {
			s.log.WithError(err).Warn("failed to archive upload")
		} else {
			row := &models.Document{
				ID:       docID,
				UserID:   userID,
				FileName: fileName,
				FilePath: storedPath,
				FileSize: len(data),
				MimeType: "application/octet-stream",
				UploadAt: time.Now().UTC(),
			}
			if err := s.documents.Insert(ctx, row); err != nil {
				s.log.WithError(err).Warn("failed to persist upload metadata")
			}
		}
	}

	return text, nil
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
