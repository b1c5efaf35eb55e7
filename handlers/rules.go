package handlers

import (
	"net/http"

	"fdeconsole/models"

	"github.com/gin-gonic/gin"
)

type entityView struct {
	models.Entity
	Stats   *models.EntityStats `json:"stats,omitempty"`
	Channel models.Channel      `json:"channel"`
}

func (h *Handler) ListEntities(c *gin.Context) {
	ctx := c.Request.Context()
	views := make([]entityView, 0, len(h.Catalog))
	for _, e := range h.Catalog {
		v := entityView{Entity: e, Channel: models.ChannelNone}
		if st, ok := h.Engine.Stats(e.ID); ok {
			v.Stats = &st
		}
		if ch, err := h.Settings.Channel(ctx, e.ID); err == nil {
			v.Channel = ch
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"entities": views})
}

func (h *Handler) GetAlertConfig(c *gin.Context) {
	id := c.Param("id")
	if !h.requireEntity(c, id) {
		return
	}
	cfg, err := h.Settings.AlertConfig(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) PutAlertConfig(c *gin.Context) {
	id := c.Param("id")
	if !h.requireEntity(c, id) {
		return
	}

	var req models.AlertConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.ErrorRateThreshold < 0 || req.ErrorRateThreshold > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "errorRateThreshold must be between 0 and 100"})
		return
	}
	if req.MinErrorCount < 0 || req.CooldownMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minErrorCount and cooldownMinutes must be non-negative"})
		return
	}

	if err := h.Settings.SetAlertConfig(c.Request.Context(), id, req); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) GetChannel(c *gin.Context) {
	id := c.Param("id")
	if !h.requireEntity(c, id) {
		return
	}
	ch, err := h.Settings.Channel(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	_, notifierErr := h.Notifiers.For(ch)
	c.JSON(http.StatusOK, gin.H{"channel": ch, "configured": notifierErr == nil})
}

func (h *Handler) PutChannel(c *gin.Context) {
	id := c.Param("id")
	if !h.requireEntity(c, id) {
		return
	}

	var req struct {
		Channel models.Channel `json:"channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if !req.Channel.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel. Must be none, slack or email"})
		return
	}

	if err := h.Settings.SetChannel(c.Request.Context(), id, req.Channel); err != nil {
		h.serviceError(c, err)
		return
	}
	_, notifierErr := h.Notifiers.For(req.Channel)
	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "configured": notifierErr == nil})
}

func (h *Handler) RunMonitor(c *gin.Context) {
	id := c.Param("id")
	if !h.requireEntity(c, id) {
		return
	}
	result, err := h.Monitor.Check(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) DeliveryStatus(c *gin.Context) {
	id := c.Param("id")
	if !h.requireEntity(c, id) {
		return
	}
	c.JSON(http.StatusOK, h.Deliveries.Get(id))
}
