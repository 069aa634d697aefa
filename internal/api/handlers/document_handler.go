package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plagiafix/plagiafix/internal/pipeline"
	"github.com/plagiafix/plagiafix/internal/services"
	"github.com/plagiafix/plagiafix/internal/storage"
	"github.com/plagiafix/plagiafix/internal/utils"
)

const maxUploadBytes = 20 << 20

type DocumentHandler struct {
	svc    services.DocumentService
	signer storage.Signer
}

func NewDocumentHandler(svc services.DocumentService, signer storage.Signer) *DocumentHandler {
	return &DocumentHandler{svc: svc, signer: signer}
}

func (h *DocumentHandler) Analyze(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fileName, data, opts, ok := h.readUpload(c, "DocumentHandler.Analyze")
	if !ok {
		return
	}

	out, err := h.svc.Analyze(c.Request.Context(), userID, fileName, data, opts, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DocumentHandler) Humanize(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fileName, data, opts, ok := h.readUpload(c, "DocumentHandler.Humanize")
	if !ok {
		return
	}

	out, err := h.svc.Humanize(c.Request.Context(), userID, fileName, data, opts, nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *DocumentHandler) GetReport(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rep, err := h.svc.GetReport(c.Request.Context(), userID, c.Param("report_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *DocumentHandler) ListReports(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.svc.ListReports(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": rows})
}

func (h *DocumentHandler) SimilarReports(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = 5
	}
	rows, err := h.svc.SimilarReports(c.Request.Context(), userID, c.Param("report_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": rows})
}

// DownloadRewrite hands out a short-lived signed URL for the stored
// rewritten text of a humanize report.
func (h *DocumentHandler) DownloadRewrite(c *gin.Context) {
	const op = "DocumentHandler.DownloadRewrite"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rep, err := h.svc.GetReport(c.Request.Context(), userID, c.Param("report_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rep.RewrittenPath == "" {
		writeError(c, utils.E(utils.CodeNotFound, op, "report has no stored rewrite", nil))
		return
	}
	if h.signer == nil {
		writeError(c, utils.E(utils.CodeInternal, op, "storage signer is not configured", nil))
		return
	}

	// stored as gs://bucket/object; the signer only wants the object name
	object := rep.RewrittenPath
	if rest, ok := strings.CutPrefix(object, "gs://"); ok {
		if _, name, found := strings.Cut(rest, "/"); found {
			object = name
		}
	}

	url, err := h.signer.SignedGetURL(c.Request.Context(), object, 15*time.Minute)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "failed to sign download url", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in_seconds": 900})
}

func (h *DocumentHandler) readUpload(c *gin.Context, op string) (string, []byte, pipeline.Options, bool) {
	var opts pipeline.Options

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return "", nil, opts, false
	}
	if fh.Size <= 0 || fh.Size > maxUploadBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 20MB)", nil))
		return "", nil, opts, false
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return "", nil, opts, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return "", nil, opts, false
	}

	opts = pipeline.Options{
		Style:     c.PostForm("style"),
		Dialect:   c.PostForm("dialect"),
		Citations: c.PostForm("citations") == "true",
	}
	return fh.Filename, data, opts, true
}
