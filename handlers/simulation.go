package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"fdeconsole/models"

	"github.com/gin-gonic/gin"
)

const defaultErrorLimit = 50

type startRequest struct {
	EntityIDs  []string `json:"entityIds"`
	IntervalMs int      `json:"intervalMs"`
}

func (h *Handler) StartSimulation(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.IntervalMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intervalMs must be positive"})
		return
	}

	entities := h.Catalog
	if len(req.EntityIDs) > 0 {
		entities = make([]models.Entity, 0, len(req.EntityIDs))
		for _, id := range req.EntityIDs {
			e, ok := h.entity(id)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown entity: " + id})
				return
			}
			entities = append(entities, e)
		}
	}

	interval := h.DefaultInterval
	if req.IntervalMs > 0 {
		interval = time.Duration(req.IntervalMs) * time.Millisecond
	}

	if err := h.Engine.Start(entities, interval); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.SimulationStatus(c)
}

func (h *Handler) StopSimulation(c *gin.Context) {
	h.Engine.Stop()
	h.SimulationStatus(c)
}

func (h *Handler) SimulationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":    h.Engine.Running(),
		"intervalMs": h.Engine.Interval().Milliseconds(),
		"entities":   h.Engine.Entities(),
	})
}

// CheckNow runs one check over every loaded entity, for poll-driven clients.
func (h *Handler) CheckNow(c *gin.Context) {
	if len(h.Engine.Entities()) == 0 {
		if err := h.Engine.Load(h.Catalog); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.Engine.CheckAll()
	c.JSON(http.StatusOK, gin.H{"stats": h.Engine.AllStats()})
}

func (h *Handler) AllStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.Engine.AllStats()})
}

func (h *Handler) EntityStats(c *gin.Context) {
	st, ok := h.Engine.Stats(c.Param("entityId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entity not found"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) RecentErrors(c *gin.Context) {
	limit := defaultErrorLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"errors": h.Engine.RecentErrors(c.Query("entityId"), limit)})
}

func (h *Handler) ClearErrors(c *gin.Context) {
	h.Engine.ClearErrors(c.Query("entityId"))
	c.JSON(http.StatusOK, gin.H{"message": "Errors cleared"})
}

func (h *Handler) ResetStats(c *gin.Context) {
	if err := h.Engine.ResetEntity(c.Query("entityId")); err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": h.Engine.AllStats()})
}
