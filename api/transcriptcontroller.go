package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transcriber/fault"
	"transcriber/orchestrator"
)

// RegisterTranscriptRoutes registers manual transcript actions on the
// current job's result.
func RegisterTranscriptRoutes(r *gin.Engine, orch *orchestrator.Orchestrator) {
	g := r.Group("/api/transcript")
	g.POST("/refine", func(c *gin.Context) { handleRefineTranscript(c, orch) })
	g.PUT("", func(c *gin.Context) { handleUpdateTranscript(c, orch) })
}

// UpdateTranscriptRequest carries a manually edited transcript text.
type UpdateTranscriptRequest struct {
	Text string `json:"text" binding:"required"`
}

// RefineTranscriptResponse returns the corrected transcript text.
type RefineTranscriptResponse struct {
	Text string `json:"text"`
}

// handleRefineTranscript reruns refinement on the finished transcript.
func handleRefineTranscript(c *gin.Context, orch *orchestrator.Orchestrator) {
	text, err := orch.RefineCurrent(c.Request.Context())
	if err != nil {
		c.JSON(statusForFault(err), gin.H{"error": fault.MessageOf(err, "refinement failed")})
		return
	}
	c.JSON(http.StatusOK, RefineTranscriptResponse{Text: text})
}

// handleUpdateTranscript replaces the finished transcript's segments with
// the submitted text, split on blank lines.
func handleUpdateTranscript(c *gin.Context, orch *orchestrator.Orchestrator) {
	var req UpdateTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := orch.UpdateTranscript(req.Text); err != nil {
		c.JSON(statusForFault(err), gin.H{"error": fault.MessageOf(err, "update failed")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// statusForFault maps an error's classification to an HTTP status.
func statusForFault(err error) int {
	switch fault.KindOf(err) {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindConfiguration:
		return http.StatusServiceUnavailable
	case fault.KindRefinement:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
