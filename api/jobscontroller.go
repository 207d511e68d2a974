package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"transcriber/fault"
	"transcriber/orchestrator"
)

// RegisterJobRoutes registers job lifecycle endpoints.
func RegisterJobRoutes(r *gin.Engine, orch *orchestrator.Orchestrator) {
	g := r.Group("/api/jobs")
	g.POST("", func(c *gin.Context) { handleStartJob(c, orch) })
	g.POST("/reset", func(c *gin.Context) { handleResetJob(c, orch) })

	r.GET("/api/status", func(c *gin.Context) { handleJobStatus(c, orch) })
}

// StartJobRequest represents the request to start a transcription job.
type StartJobRequest struct {
	URL string `json:"url" binding:"required"`
}

// handleStartJob starts a new transcription job for the submitted URL.
// The pipeline runs asynchronously; callers poll /api/status for progress.
func handleStartJob(c *gin.Context, orch *orchestrator.Orchestrator) {
	var req StartJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := orch.Start(req.URL)
	switch {
	case errors.Is(err, orchestrator.ErrJobAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case fault.KindOf(err) == fault.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": fault.MessageOf(err, "invalid URL")})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "job started"})
	}
}

// handleJobStatus returns a snapshot of the current job.
func handleJobStatus(c *gin.Context, orch *orchestrator.Orchestrator) {
	c.JSON(http.StatusOK, orch.Snapshot())
}

// handleResetJob cancels whatever is in flight and returns to idle.
func handleResetJob(c *gin.Context, orch *orchestrator.Orchestrator) {
	orch.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
