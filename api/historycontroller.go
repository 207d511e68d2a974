package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transcriber/history"
)

// RegisterHistoryRoutes registers the transcript history endpoints.
func RegisterHistoryRoutes(r *gin.Engine, ledger *history.Ledger) {
	g := r.Group("/api/history")
	g.GET("", func(c *gin.Context) { handleListHistory(c, ledger) })
	g.GET("/:id", func(c *gin.Context) { handleGetHistoryItem(c, ledger) })
	g.DELETE("/:id", func(c *gin.Context) { handleDeleteHistoryItem(c, ledger) })
}

// handleListHistory returns all persisted items, newest first.
func handleListHistory(c *gin.Context, ledger *history.Ledger) {
	c.JSON(http.StatusOK, gin.H{"items": ledger.Items()})
}

// handleGetHistoryItem returns one item by id.
func handleGetHistoryItem(c *gin.Context, ledger *history.Ledger) {
	item, ok := ledger.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "history record not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

// handleDeleteHistoryItem removes one item. The deletion only succeeds when
// the backend confirms a row was removed.
func handleDeleteHistoryItem(c *gin.Context, ledger *history.Ledger) {
	if err := ledger.Remove(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
