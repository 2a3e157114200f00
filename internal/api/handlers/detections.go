package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/lpr/internal/detect"
	"github.com/your-org/lpr/internal/models"
	"github.com/your-org/lpr/internal/runs"
	"github.com/your-org/lpr/pkg/dto"
)

var errNotImage = errors.New("only image uploads are accepted")

const multipartMemory = 8 << 20

type DetectionOptions struct {
	DefaultModel   string
	MaxUploadBytes int64
	// WaitTimeout bounds ?wait=true requests. The run keeps going when
	// it expires and the response falls back to 202.
	WaitTimeout time.Duration
}

type DetectionHandler struct {
	runs *runs.Manager
	opts DetectionOptions
}

func NewDetectionHandler(m *runs.Manager, opts DetectionOptions) *DetectionHandler {
	return &DetectionHandler{runs: m, opts: opts}
}

func (h *DetectionHandler) Create(c *gin.Context) {
	req, status, err := h.bind(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	modelID := req.ModelID
	if modelID == "" {
		modelID = h.opts.DefaultModel
	}

	run, err := h.runs.Start(req.Image, modelID, req.Session)
	if err != nil {
		if errors.Is(err, runs.ErrNoImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, runToResponse(run))
		return
	}

	ctx := c.Request.Context()
	if h.opts.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.WaitTimeout)
		defer cancel()
	}

	_, err = run.Pending.Wait(ctx)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, runToResponse(run))
	case errors.Is(err, detect.ErrCanceled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "run": runToResponse(run)})
	default:
		c.JSON(http.StatusAccepted, runToResponse(run))
	}
}

// bind reads either a multipart upload or a JSON body.
func (h *DetectionHandler) bind(c *gin.Context) (dto.DetectRequest, int, error) {
	var req dto.DetectRequest

	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(c.ContentType())
	if mediaType != "multipart/form-data" {
		if err := c.ShouldBindJSON(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return req, http.StatusBadRequest, runs.ErrNoImage
			}
			return req, bodyErrorStatus(err), err
		}
		if strings.HasPrefix(req.Image, "data:") && !strings.HasPrefix(req.Image, "data:image/") {
			return req, http.StatusBadRequest, errNotImage
		}
		return req, 0, nil
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return req, bodyErrorStatus(err), err
	}
	req.ModelID = c.PostForm("model_id")
	req.Session = c.PostForm("session")

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, http.StatusBadRequest, runs.ErrNoImage
		}
		return req, bodyErrorStatus(err), err
	}

	f, err := fh.Open()
	if err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return req, http.StatusBadRequest, runs.ErrNoImage
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return req, http.StatusBadRequest, errNotImage
	}

	req.Image = dataURL(contentType, data)
	return req, 0, nil
}

func bodyErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func dataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (h *DetectionHandler) Get(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, runToResponse(run))
}

func (h *DetectionHandler) List(c *gin.Context) {
	all := h.runs.List()
	resp := make([]dto.RunResponse, 0, len(all))
	for _, run := range all {
		resp = append(resp, runToResponse(run))
	}
	c.JSON(http.StatusOK, dto.RunListResponse{Runs: resp, Total: len(resp)})
}

func (h *DetectionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.runs.Cancel(id)
	switch {
	case errors.Is(err, runs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, runs.ErrFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "run": runToResponse(run)})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, runToResponse(run))
	}
}

func (h *DetectionHandler) lookup(c *gin.Context) (*runs.Run, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return nil, false
	}
	run, err := h.runs.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return run, true
}

func runToResponse(run *runs.Run) dto.RunResponse {
	resp := dto.RunResponse{
		ID:        run.ID(),
		ModelID:   run.Pending.ModelID(),
		Session:   run.Session,
		Status:    run.Status(),
		StartedAt: run.Pending.StartedAt().Format(time.RFC3339Nano),
	}
	if res, ok := run.Pending.Result(); ok {
		r := resultToResponse(res)
		resp.Result = &r
	}
	return resp
}

func resultToResponse(res models.DetectionResult) dto.ResultResponse {
	plates := make([]dto.PlateResponse, 0, len(res.Detections))
	for _, d := range res.Detections {
		pct := confidencePercent(d.Confidence)
		plates = append(plates, dto.PlateResponse{
			PlateNumber:       d.PlateNumber,
			Confidence:        d.Confidence,
			ConfidencePercent: pct,
			ConfidenceTier:    confidenceTier(pct),
			Box: dto.BoxResponse{
				X:      d.Box.X,
				Y:      d.Box.Y,
				Width:  d.Box.Width,
				Height: d.Box.Height,
			},
		})
	}
	return dto.ResultResponse{
		OriginalImage:  res.OriginalImage,
		ModelName:      res.ModelName,
		ProcessingTime: res.ProcessingTime,
		ProcessingMS:   int64(math.Round(res.ProcessingTime)),
		Detections:     plates,
		Summary:        models.PlateCountText(len(res.Detections)) + " detected",
	}
}

func confidencePercent(c float64) int {
	return int(math.Round(c * 100))
}

func confidenceTier(percent int) string {
	switch {
	case percent >= 90:
		return "high"
	case percent >= 70:
		return "medium"
	default:
		return "low"
	}
}
