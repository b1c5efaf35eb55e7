package handlers

import (
	"errors"
	"net/http"
	"time"

	"fdeconsole/models"
	"fdeconsole/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthSettings struct {
	Secret   []byte
	Operator models.Operator
	TokenTTL time.Duration
}

// Handler carries the services the routes call into. It is built once by the
// composition root.
type Handler struct {
	Jobs            *services.JobStore
	Engine          *services.Engine
	Settings        *services.Settings
	Monitor         *services.Monitor
	Deliveries      *services.Deliveries
	Notifiers       services.Notifiers
	Slack           *services.SlackNotifier
	GitHub          *services.GitHubClient
	Copilot         *services.Copilot
	Auth            AuthSettings
	Catalog         []models.Entity
	DefaultInterval time.Duration
	Log             logrus.FieldLogger
}

func (h *Handler) entity(id string) (models.Entity, bool) {
	for _, e := range h.Catalog {
		if e.ID == id {
			return e, true
		}
	}
	return models.Entity{}, false
}

// requireEntity writes a 404 and returns false for ids outside the catalog.
func (h *Handler) requireEntity(c *gin.Context, id string) bool {
	if _, ok := h.entity(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
		return false
	}
	return true
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownEntity):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidEntity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrChannelNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		h.Log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
