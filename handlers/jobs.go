package handlers

import (
	"fmt"
	"net/http"
	"time"

	"fdeconsole/models"
	"fdeconsole/services"

	"github.com/gin-gonic/gin"
)

type jobRequest struct {
	EntityID string `json:"entityId"`
	Count    *int   `json:"count"`
}

type jobResponse struct {
	models.Job
	JobID string `json:"jobId"`
}

func (h *Handler) ListJobs(c *gin.Context) {
	jobs := h.Jobs.List(c.Query("entityId"))
	services.SortByStartedDesc(jobs)
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *Handler) GetJob(c *gin.Context) {
	job, ok := h.Jobs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) TickJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"updated": h.Jobs.Tick()})
}

func (h *Handler) CreateBackfill(c *gin.Context) {
	h.createJob(c, models.JobBackfill)
}

func (h *Handler) CreateReplay(c *gin.Context) {
	h.createJob(c, models.JobReplayEvents)
}

// CreatePRJob opens a mapping PR for the entity and records a create_pr job.
func (h *Handler) CreatePRJob(c *gin.Context) {
	req, ok := bindJobRequest(c)
	if !ok || !h.requireEntity(c, req.EntityID) {
		return
	}

	pr, err := h.GitHub.CreatePullRequest(c.Request.Context(), services.PullRequestInput{
		Title: fmt.Sprintf("Update field mappings for %s", req.EntityID),
		Body:  "Opened from the FDE console.",
		Head:  fmt.Sprintf("fde/%s-%d", req.EntityID, time.Now().Unix()),
	})
	if err != nil {
		h.Log.WithError(err).WithField("entity", req.EntityID).Warn("pull request creation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create pull request"})
		return
	}

	h.respondJob(c, models.JobCreatePR, req.EntityID, prMeta(pr))
}

func (h *Handler) createJob(c *gin.Context, jobType models.JobType) {
	req, ok := bindJobRequest(c)
	if !ok || !h.requireEntity(c, req.EntityID) {
		return
	}

	meta := map[string]interface{}{}
	if req.Count != nil {
		meta["count"] = *req.Count
	}
	h.respondJob(c, jobType, req.EntityID, meta)
}

func (h *Handler) respondJob(c *gin.Context, jobType models.JobType, entityID string, meta map[string]interface{}) {
	job, err := h.Jobs.Create(jobType, entityID, meta)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, jobResponse{Job: job, JobID: job.ID})
}

func bindJobRequest(c *gin.Context) (jobRequest, bool) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return req, false
	}
	if req.EntityID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entityId is required"})
		return req, false
	}
	if req.Count != nil && *req.Count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be non-negative"})
		return req, false
	}
	return req, true
}

func prMeta(pr services.PullRequest) map[string]interface{} {
	return map[string]interface{}{
		"prNumber": pr.Number,
		"prUrl":    pr.URL,
		"stub":     pr.Stub,
	}
}
