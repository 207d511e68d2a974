package api

import (
	"github.com/gin-gonic/gin"

	"transcriber/history"
	"transcriber/orchestrator"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(orch *orchestrator.Orchestrator, ledger *history.Ledger) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	// Register resource routers
	RegisterHealthRoutes(r)
	RegisterJobRoutes(r, orch)
	RegisterTranscriptRoutes(r, orch)
	RegisterHistoryRoutes(r, ledger)
	RegisterFeedRoutes(r)
	return r
}
