package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"github.com/alejandroruanova/preprocessing-service/internal/app/preprocess"
	"github.com/alejandroruanova/preprocessing-service/internal/core/services/preprocessing"
	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// BatchResponse is returned by POST /. Filtered and failed texts are empty
// strings; failures are listed by index next to the results.
type BatchResponse struct {
	Result        []string          `json:"result"`
	FailedIndices []int             `json:"failed_indices,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// TextResponse is returned by POST /text
type TextResponse struct {
	Result   string `json:"result"`
	Filtered bool   `json:"filtered"`
}

// StepsResponse is returned by GET /steps
type StepsResponse struct {
	Steps   []string              `json:"steps"`
	Options preprocessing.Options `json:"options"`
}

// Handler serves the preprocessing API
type Handler struct {
	svc    *preprocess.Service
	logger *slog.Logger
}

// NewHandler creates a new handler
func NewHandler(svc *preprocess.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// NormalizeBatch handles POST /
func (h *Handler) NormalizeBatch(c *gin.Context) {
	var req BatchRequest
	if !bindWithQuery(c, &req.OptionParams, &req) {
		return
	}

	opts, err := req.Options()
	if err != nil {
		abortWithError(c, err)
		return
	}

	res, err := h.svc.NormalizeBatch(c.Request.Context(), req.Texts, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := BatchResponse{Result: res.Texts()}
	if res.Failed > 0 {
		resp.FailedIndices = res.FailedIndices()
		resp.Errors = make(map[string]string, res.Failed)
		for _, item := range res.Items {
			if item.Err != nil {
				resp.Errors[strconv.Itoa(item.Index)] = item.Err.Error()
			}
		}
		h.logger.Warn("batch items failed",
			slog.Int("failed", res.Failed),
			slog.Int("total", len(res.Items)))
	}

	c.JSON(http.StatusOK, resp)
}

// NormalizeText handles POST /text
func (h *Handler) NormalizeText(c *gin.Context) {
	var req TextRequest
	if !bindWithQuery(c, &req.OptionParams, &req) {
		return
	}

	opts, err := req.Options()
	if err != nil {
		abortWithError(c, err)
		return
	}

	res, err := h.svc.Normalize(c.Request.Context(), *req.Text, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TextResponse{Result: res.Text, Filtered: res.Filtered})
}

// ListPresets handles GET /presets
func (h *Handler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": preprocessing.ListPresetsWithMetadata()})
}

// Steps handles GET /steps
func (h *Handler) Steps(c *gin.Context) {
	var params OptionParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}

	opts, err := params.Options()
	if err != nil {
		abortWithError(c, err)
		return
	}

	steps, err := h.svc.Steps(opts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, StepsResponse{Steps: steps, Options: opts})
}

// SubmitBatchJob handles POST /jobs
func (h *Handler) SubmitBatchJob(c *gin.Context) {
	var req BatchRequest
	if !bindWithQuery(c, &req.OptionParams, &req) {
		return
	}

	opts, err := req.Options()
	if err != nil {
		abortWithError(c, err)
		return
	}

	job, err := h.svc.SubmitBatchJob(c.Request.Context(), req.Texts, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// SubmitFileJob handles POST /jobs/file (multipart, field "file")
func (h *Handler) SubmitFileJob(c *gin.Context) {
	var params FileJobParams
	if err := c.ShouldBindWith(&params, binding.Form); err != nil {
		bindError(c, err)
		return
	}

	opts, err := params.Options()
	if err != nil {
		abortWithError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, apperrors.BadRequest("multipart field \"file\" is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		abortWithError(c, apperrors.InternalWrap(err, "failed to read upload"))
		return
	}
	defer file.Close()

	job, err := h.svc.SubmitFileJob(c.Request.Context(), preprocess.FileJobRequest{
		Filename:    header.Filename,
		Reader:      file,
		TextColumn:  params.TextColumn,
		Deduplicate: params.Deduplicate,
		Options:     opts,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// ListJobs handles GET /jobs?status=&limit=
func (h *Handler) ListJobs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(c, apperrors.BadRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	jobs, err := h.svc.ListJobs(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetJob handles GET /jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	job, err := h.svc.GetJob(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// JobResults handles GET /jobs/:id/results
func (h *Handler) JobResults(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	lines, err := h.svc.JobResults(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": id, "results": lines})
}

// DeleteJob handles DELETE /jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteJob(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	report := h.svc.Health(c.Request.Context())

	status := http.StatusOK
	if report["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// bindWithQuery reads option flags from the query string, then lets the JSON
// body override them
func bindWithQuery(c *gin.Context, params *OptionParams, body any) bool {
	if err := c.ShouldBindQuery(params); err != nil {
		bindError(c, err)
		return false
	}
	if err := c.ShouldBindJSON(body); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

func jobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, apperrors.BadRequest("invalid job id").WithDetails("id", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}
