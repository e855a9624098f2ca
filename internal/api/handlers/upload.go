package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printquote/internal/config"
	"printquote/internal/core"
)

// Enqueuer accepts a new job for asynchronous processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *core.Job) (string, error)
}

// Converter turns a 3MF upload into an STL the slicer can consume.
type Converter interface {
	ConvertToSTL(ctx context.Context, modelPath string) (string, error)
}

type UploadHandler struct {
	queue     Enqueuer
	converter Converter
	storage   config.StorageConfig
	logger    *zap.Logger
}

func NewUploadHandler(queue Enqueuer, converter Converter, storage config.StorageConfig, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		queue:     queue,
		converter: converter,
		storage:   storage,
		logger:    logger,
	}
}

type UploadResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Upload accepts a multipart model upload, validates and stores it, converts
// 3MF to STL, and queues the slicing job. The response carries the job id; the
// client polls GET /api/job/:id for progress.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !h.storage.ExtensionAllowed(ext) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unsupported file type, allowed: " + strings.Join(h.storage.AllowedExtensions, ", "),
		})
		return
	}
	if file.Size > h.storage.MaxUploadBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file exceeds maximum upload size of " + strconv.FormatInt(h.storage.MaxUploadMB, 10) + " MB",
		})
		return
	}

	materialID := c.PostForm("material_id")
	colorID := c.PostForm("color_id")
	if materialID == "" || colorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "material_id and color_id are required"})
		return
	}

	fill := 0.0
	if v := c.PostForm("fill_density"); v != "" {
		fill, err = strconv.ParseFloat(v, 64)
		if err != nil || fill < 0 || fill > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fill_density must be a fraction between 0 and 1"})
			return
		}
	}
	supports := parseBool(c.PostForm("enable_supports"))

	storedName := uuid.NewString() + ext
	storedPath := filepath.Join(h.storage.UploadDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		h.logger.Error("failed to store upload", zap.String("file", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded file"})
		return
	}

	// 3MF models are converted before a job exists; conversion failure rejects
	// the submission outright.
	if ext == ".3mf" {
		converted, err := h.converter.ConvertToSTL(c.Request.Context(), storedPath)
		if err != nil {
			os.Remove(storedPath)
			h.logger.Warn("3mf conversion failed", zap.String("file", file.Filename), zap.Error(err))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		storedName = filepath.Base(converted)
	}

	job := &core.Job{
		Filename:         storedName,
		OriginalFilename: file.Filename,
		MaterialID:       materialID,
		ColorID:          colorID,
		QualityID:        c.PostForm("quality_id"),
		FillDensity:      fill,
		EnableSupports:   supports,
	}

	id, err := h.queue.Enqueue(c.Request.Context(), job)
	if err != nil {
		h.logger.Error("failed to enqueue job", zap.String("file", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue job"})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		JobID:   id,
		Status:  string(core.JobStatusPending),
		Message: "model uploaded and queued for slicing",
	})
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
