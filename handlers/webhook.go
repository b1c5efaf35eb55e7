package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fdeconsole/models"
	"fdeconsole/services"

	"github.com/gin-gonic/gin"
)

// WebhookTest sends a low severity test notification through the entity's
// configured channel.
func (h *Handler) WebhookTest(c *gin.Context) {
	id := c.Param("id")
	if !h.requireEntity(c, id) {
		return
	}
	ctx := c.Request.Context()

	channel, err := h.Settings.Channel(ctx, id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	notifier, err := h.Notifiers.For(channel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No notification channel configured for this entity"})
		return
	}

	n := models.Notification{
		Title:    fmt.Sprintf("Test notification for %s", id),
		Severity: models.SeverityLow,
		Message:  "If you can read this, alert delivery for this deployment works.",
		Fields: []models.Field{
			{Label: "Entity", Value: id, Short: true},
			{Label: "Channel", Value: string(channel), Short: true},
			{Label: "Sent at", Value: time.Now().UTC().Format(time.RFC3339)},
		},
	}
	if err := notifier.Send(ctx, n); err != nil {
		h.Deliveries.Failed(id, err)
		if errors.Is(err, services.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Delivery failed: " + err.Error()})
		return
	}
	h.Deliveries.Sent(id)
	c.JSON(http.StatusOK, gin.H{"message": "Test notification sent", "channel": channel})
}
