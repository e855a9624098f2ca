package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printquote/internal/core"
	"printquote/internal/db"
)

// JobReader is the job store surface the status and admin endpoints need.
type JobReader interface {
	Get(ctx context.Context, id string) (*core.Job, error)
	List(ctx context.Context) ([]*core.Job, error)
	Approve(ctx context.Context, id string) (*core.Job, error)
	Reject(ctx context.Context, id string) (*core.Job, error)
}

type JobHandler struct {
	store  JobReader
	logger *zap.Logger
}

func NewJobHandler(store JobReader, logger *zap.Logger) *JobHandler {
	return &JobHandler{store: store, logger: logger}
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// ApproveJob finalizes a completed quote. Only a job in completed state may be
// approved.
func (h *JobHandler) ApproveJob(c *gin.Context) {
	h.finalize(c, h.store.Approve, "approve", "approved")
}

// RejectJob declines a completed quote.
func (h *JobHandler) RejectJob(c *gin.Context) {
	h.finalize(c, h.store.Reject, "reject", "rejected")
}

func (h *JobHandler) finalize(c *gin.Context, op func(context.Context, string) (*core.Job, error), verb, past string) {
	id := c.Param("id")
	job, err := op(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		case errors.Is(err, db.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "only completed jobs can be " + past})
		default:
			h.logger.Error("failed to "+verb+" job", zap.String("job_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + verb + " job"})
		}
		return
	}
	c.JSON(http.StatusOK, job)
}
