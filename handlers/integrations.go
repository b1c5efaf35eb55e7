package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"fdeconsole/middleware"
	"fdeconsole/models"
	"fdeconsole/services"

	"github.com/gin-gonic/gin"
)

type pullRequestRequest struct {
	EntityID string `json:"entityId"`
	services.PullRequestInput
}

// CreatePullRequest proxies PR creation to GitHub and records a create_pr job.
func (h *Handler) CreatePullRequest(c *gin.Context) {
	var req pullRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.EntityID == "" || req.Title == "" || req.Head == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entityId, title and head are required"})
		return
	}
	if !h.requireEntity(c, req.EntityID) {
		return
	}

	pr, err := h.GitHub.CreatePullRequest(c.Request.Context(), req.PullRequestInput)
	if err != nil {
		h.Log.WithError(err).WithField("entity", req.EntityID).Warn("pull request creation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create pull request"})
		return
	}

	job, err := h.Jobs.Create(models.JobCreatePR, req.EntityID, prMeta(pr))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pullRequest": pr, "jobId": job.ID, "job": job})
}

func (h *Handler) SlackNotify(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	text := req.Text
	if op := middleware.Operator(c); op != "" {
		text = fmt.Sprintf("%s\n_sent by %s_", req.Text, op)
	}
	if err := h.Slack.SendText(c.Request.Context(), text); err != nil {
		if errors.Is(err, services.ErrChannelNotConfigured) || errors.Is(err, services.ErrRateLimited) {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Slack delivery failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sent"})
}
