package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FumingPower3925/ttrpg-session-manager/services"
)

// SessionHandler handles session configuration endpoints: auto-detection,
// export/import and part activation.
type SessionHandler struct {
	manager *services.SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(manager *services.SessionManager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// Scan runs folder auto-detection against the configured session root.
func (h *SessionHandler) Scan(c *gin.Context) {
	result, err := h.manager.Scan()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrAccessDenied) {
			status = http.StatusForbidden
		} else if errors.Is(err, services.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "scan failed",
			"details": err.Error(),
		})
		return
	}

	// Zero detected parts is a distinguishable empty result, not an error:
	// the UI should steer the user toward manual setup.
	c.JSON(http.StatusOK, gin.H{
		"config":    result.Config,
		"plausible": result.Plausible,
		"detected":  len(result.Config.Parts) > 0,
	})
}

// GetConfig returns the current session configuration.
func (h *SessionHandler) GetConfig(c *gin.Context) {
	cfg, err := h.manager.Config()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// Export serves the current configuration as a downloadable JSON file.
func (h *SessionHandler) Export(c *gin.Context) {
	data, err := h.manager.Export()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session configured"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="session-config.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Import installs an uploaded configuration. Any structural violation
// rejects the whole import and the prior configuration stays in place.
func (h *SessionHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return
	}

	if err := h.manager.Import(data); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"field":   validationErr.Field,
				"details": validationErr.Reason,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "import failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session config imported"})
}

// ActivatePart loads a part's playlists into the playback engine.
func (h *SessionHandler) ActivatePart(c *gin.Context) {
	partID := c.Param("partId")
	if err := h.manager.ActivatePart(partID); err != nil {
		status := http.StatusNotFound
		if errors.Is(err, services.ErrNoSession) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "part activated"})
}

// FilterPlaylists fuzzy-filters the active part's event playlists by name.
func (h *SessionHandler) FilterPlaylists(c *gin.Context) {
	query := c.Query("query")
	playlists := h.manager.FilterEventPlaylists(query)
	c.JSON(http.StatusOK, gin.H{
		"playlists": playlists,
		"count":     len(playlists),
	})
}
