package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AskCopilot(c *gin.Context) {
	var req struct {
		EntityID string `json:"entityId"`
		Message  string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.EntityID != "" && !h.requireEntity(c, req.EntityID) {
		return
	}

	reply, err := h.Copilot.Ask(c.Request.Context(), req.EntityID, req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}
