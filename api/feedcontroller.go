package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"transcriber/feeds"
)

// RegisterFeedRoutes registers the channel feed listing endpoint.
func RegisterFeedRoutes(r *gin.Engine) {
	r.GET("/api/feed", handleListFeed)
}

// handleListFeed returns recent videos of a channel feed so a caller can
// pick one to transcribe.
func handleListFeed(c *gin.Context) {
	channel := c.Query("channel")
	count, _ := strconv.Atoi(c.DefaultQuery("count", "0"))

	if _, err := feeds.ResolveFeedURL(channel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	videos, err := feeds.FetchVideos(channel, count)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}
