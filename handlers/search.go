package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FumingPower3925/ttrpg-session-manager/services"
)

// SearchHandler handles document search endpoints
type SearchHandler struct {
	manager *services.SessionManager
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(manager *services.SessionManager) *SearchHandler {
	return &SearchHandler{manager: manager}
}

// Search queries the document index. A blank query is a valid request that
// returns no results; debouncing is the caller's job.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")

	maxResults := services.DefaultMaxResults
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			maxResults = limit
		}
	}

	results := h.manager.Search(query, maxResults)
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}
