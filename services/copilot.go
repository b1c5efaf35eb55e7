package services

import (
	"context"
	"fmt"
	"strings"

	"fdeconsole/models"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const copilotPersona = "You are a forward-deployed engineering copilot. Answer briefly and reference the deployment data you are given."

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type copilotSource interface {
	StatsSource
	RecentErrors(entityID string, limit int) []models.SimulatedError
}

type CopilotReply struct {
	Reply  string `json:"reply"`
	Source string `json:"source"` // stub or llm
}

// Copilot answers operator questions, through an LLM when one is configured
// and from deterministic rules otherwise.
type Copilot struct {
	client ChatClient
	model  string
	engine copilotSource
	jobs   *JobStore
	log    logrus.FieldLogger
}

func NewCopilot(engine copilotSource, jobs *JobStore, log logrus.FieldLogger) *Copilot {
	return &Copilot{engine: engine, jobs: jobs, log: log}
}

// WithLLM enables the LLM backend; an empty key leaves the stub in place.
func (c *Copilot) WithLLM(apiKey, model string) *Copilot {
	if apiKey == "" {
		return c
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	c.client = openai.NewClient(apiKey)
	c.model = model
	return c
}

func (c *Copilot) withClient(client ChatClient, model string) *Copilot {
	c.client = client
	c.model = model
	return c
}

func (c *Copilot) Ask(ctx context.Context, entityID, message string) (CopilotReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return CopilotReply{}, fmt.Errorf("message is required")
	}
	contextText := c.describe(entityID)

	if c.client != nil {
		reply, err := c.askLLM(ctx, contextText, message)
		if err == nil {
			return CopilotReply{Reply: reply, Source: "llm"}, nil
		}
		c.log.WithError(err).Warn("copilot LLM call failed, falling back to stub")
	}
	return CopilotReply{Reply: c.stub(entityID, message, contextText), Source: "stub"}, nil
}

func (c *Copilot) askLLM(ctx context.Context, contextText, message string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: copilotPersona},
			{Role: openai.ChatMessageRoleSystem, Content: contextText},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Copilot) describe(entityID string) string {
	if entityID == "" {
		return "No deployment selected."
	}
	st, ok := c.engine.Stats(entityID)
	if !ok {
		return fmt.Sprintf("Deployment %s is not monitored.", entityID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deployment %s is %s with %d errors total, %d in the last minute (%.1f%% of checks).",
		entityID, st.Health, st.ErrorCount, st.ErrorRate, st.ErrorPercent())
	recent := c.engine.RecentErrors(entityID, 3)
	if len(recent) > 0 {
		b.WriteString(" Recent errors:")
		for _, e := range recent {
			fmt.Fprintf(&b, " [%s] %s;", e.Severity, e.ErrorType)
		}
	}
	return b.String()
}

func (c *Copilot) stub(entityID, message, contextText string) string {
	lower := strings.ToLower(message)

	for _, mode := range failureCatalog {
		if strings.Contains(lower, mode.errorType) || strings.Contains(lower, strings.ReplaceAll(mode.errorType, "_", " ")) {
			return fmt.Sprintf("%s: %s. Typically rated %s. Check the connector logs and credentials for this integration, then replay the affected events once fixed.",
				mode.errorType, mode.message, mode.severity)
		}
	}

	switch {
	case strings.Contains(lower, "job") || strings.Contains(lower, "backfill") || strings.Contains(lower, "replay"):
		jobs := c.jobs.List(entityID)
		active := 0
		for _, j := range jobs {
			if !j.Status.Terminal() {
				active++
			}
		}
		return fmt.Sprintf("There are %d jobs for this view, %d still in progress. Use tick to advance them.", len(jobs), active)
	case strings.Contains(lower, "alert"):
		return "Alerts fire when alerting is enabled, the error rate and count pass their thresholds and the cooldown has elapsed. High and critical simulated errors are sent straight to the configured channel."
	case strings.Contains(lower, "health") || strings.Contains(lower, "status") || strings.Contains(lower, "error"):
		return contextText
	}
	return "I can summarize deployment health, explain an error type, or report on backfill and replay jobs. " + contextText
}
