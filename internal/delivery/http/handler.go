package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/localrank/backend/internal/domain"
	"github.com/localrank/backend/internal/infrastructure/csvio"
	"github.com/localrank/backend/internal/usecase"
	"go.uber.org/zap"
)

const (
	runIDHeader = "X-Run-ID"
	uploadField = "file"
)

// Export formats accepted by ExportRun
const (
	formatCSV     = "csv"
	formatJSON    = "json"
	formatMatches = "matches"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	runs   *usecase.RunService
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(runs *usecase.RunService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runs: runs, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "localrank-backend",
		"version": "1.0.0",
	})
}

// upload is a parsed CSV upload
type upload struct {
	fileName string
	rows     []domain.QueryRow
	locale   domain.Locale
}

// readUpload parses the multipart upload, writing the error response itself
// when it fails.
func (h *Handler) readUpload(c *gin.Context) (*upload, bool) {
	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file exceeds the %d byte upload limit", tooLarge.Limit),
			})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, false
	}
	defer file.Close()

	rows, err := csvio.ParseQueries(file)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}

	return &upload{
		fileName: header.Filename,
		rows:     rows,
		locale: domain.Locale{
			GL: strings.TrimSpace(c.PostForm("gl")),
			HL: strings.TrimSpace(c.PostForm("hl")),
		},
	}, true
}

// ProcessCSV runs an uploaded CSV to completion and returns every result
func (h *Handler) ProcessCSV(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}

	run, err := h.runs.Process(c.Request.Context(), up.fileName, up.rows, up.locale)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header(runIDHeader, run.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"runId":   run.ID,
		"data":    run.Result,
	})
}

// ProcessCSVStream runs an uploaded CSV and streams its events as
// server-sent events. Input errors are answered with a plain JSON error
// before the stream starts.
func (h *Handler) ProcessCSVStream(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}

	run, events := h.runs.Stream(c.Request.Context(), up.fileName, up.rows, up.locale)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header(runIDHeader, run.ID)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	broken := false
	for ev := range events {
		if broken {
			continue
		}
		if err := writeEvent(c.Writer, ev); err != nil {
			// The run notices the closed request context and stops on its own
			h.logger.Debug("stream write failed", zap.String("run_id", run.ID), zap.Error(err))
			broken = true
			continue
		}
		c.Writer.Flush()
	}
}

// writeEvent frames one event as an SSE data line
func writeEvent(w io.Writer, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// ListRuns returns the recent runs, newest first
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.runs.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if runs == nil {
		runs = []*domain.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns a run with its reduced preview
func (h *Handler) GetRun(c *gin.Context) {
	preview, err := h.runs.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// ExportRun downloads the results of a completed run
func (h *Handler) ExportRun(c *gin.Context) {
	format := c.DefaultQuery("format", formatCSV)
	if format != formatCSV && format != formatJSON && format != formatMatches {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unknown format %q, want csv, json or matches", format),
		})
		return
	}

	run, result, err := h.runs.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	ts := run.FinishedAt.UnixMilli()
	var (
		fileName    string
		contentType string
		write       func(io.Writer) error
	)
	switch format {
	case formatJSON:
		fileName = csvio.OutputJSONName(ts)
		contentType = "application/json"
		write = func(w io.Writer) error { return csvio.WriteJSON(w, result.AllPlaces) }
	case formatMatches:
		fileName = csvio.MatchesCSVName(ts)
		contentType = "text/csv"
		reduced := usecase.ReduceResults(result.AllPlaces)
		write = func(w io.Writer) error { return csvio.WriteMatchesCSV(w, reduced) }
	default:
		fileName = csvio.OutputCSVName(ts)
		contentType = "text/csv"
		write = func(w io.Writer) error { return csvio.WriteCSV(w, result.AllPlaces) }
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Status(http.StatusOK)
	if err := write(c.Writer); err != nil {
		h.logger.Warn("export failed", zap.String("run_id", run.ID), zap.String("format", format), zap.Error(err))
		_ = c.Error(err)
	}
}

// SampleCSV downloads a template upload
func (h *Handler) SampleCSV(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="sample_queries.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(csvio.SampleCSV))
}

// writeError maps domain errors to HTTP responses
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsInputError(err):
		status = http.StatusBadRequest
	case domain.IsProviderError(err):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrRunNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRunIncomplete):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrStreamDisconnected):
		// Nobody is listening any more
		c.Abort()
		return
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
