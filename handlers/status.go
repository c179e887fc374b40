package handlers

import (
	"net/http"

	"github.com/Merka34/pocket-scrum-bk/db"
	"github.com/Merka34/pocket-scrum-bk/models"
	"github.com/gin-gonic/gin"
)

// standardResponse sends a consistent JSON response
func standardResponse(c *gin.Context, code int, status string, data interface{}, err string) {
	response := gin.H{"status": status}

	if data != nil {
		response["data"] = data
	}

	if err != "" {
		response["error"] = err
	}

	c.JSON(code, response)
}

// StatusHandler serves the informational HTTP surface.
type StatusHandler struct {
	store *db.Registry
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(store *db.Registry) *StatusHandler {
	return &StatusHandler{
		store: store,
	}
}

// Status reports live room and participant counts.
func (h *StatusHandler) Status(c *gin.Context) {
	rooms, participants := h.store.Stats()
	standardResponse(c, http.StatusOK, "ok", gin.H{
		"rooms":        rooms,
		"participants": participants,
	}, "")
}

// GetRoom reports summary information for one room.
func (h *StatusHandler) GetRoom(c *gin.Context) {
	room, exists := h.store.Get(c.Param("code"))
	if !exists {
		standardResponse(c, http.StatusNotFound, "error", nil, models.ErrRoomNotFound.Error())
		return
	}

	standardResponse(c, http.StatusOK, "ok", gin.H{
		"code":      room.Code,
		"members":   room.MemberCount(),
		"phase":     room.Phase(),
		"createdAt": room.CreatedAt,
	}, "")
}

// Health is the liveness endpoint.
func (h *StatusHandler) Health(c *gin.Context) {
	standardResponse(c, http.StatusOK, "ok", nil, "")
}
