package services

import (
	"context"
	"errors"
	"testing"

	"fdeconsole/models"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	reply string
	err   error
	last  openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

func newTestCopilot(t *testing.T) (*Copilot, *Engine, *JobStore) {
	t.Helper()
	engine := NewEngine(testLog)
	require.NoError(t, engine.Load([]models.Entity{{ID: "acme", Health: models.HealthNoisy}}))
	jobs := NewJobStore(testLog)
	return NewCopilot(engine, jobs, testLog), engine, jobs
}

func TestCopilot_StubReplies(t *testing.T) {
	copilot, _, jobs := newTestCopilot(t)
	ctx := context.Background()

	_, err := jobs.Create(models.JobBackfill, "acme", nil)
	require.NoError(t, err)

	reply, err := copilot.Ask(ctx, "acme", "what does auth failure mean?")
	require.NoError(t, err)
	assert.Equal(t, "stub", reply.Source)
	assert.Contains(t, reply.Reply, "auth_failure")

	reply, err = copilot.Ask(ctx, "acme", "how are my jobs doing")
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "1 jobs")

	reply, err = copilot.Ask(ctx, "acme", "what is the health?")
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "Deployment acme is noisy")

	reply, err = copilot.Ask(ctx, "ghost", "status")
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "not monitored")
}

func TestCopilot_EmptyMessage(t *testing.T) {
	copilot, _, _ := newTestCopilot(t)
	_, err := copilot.Ask(context.Background(), "acme", "   ")
	assert.Error(t, err)
}

func TestCopilot_UsesLLM(t *testing.T) {
	copilot, _, _ := newTestCopilot(t)
	chat := &fakeChat{reply: "All quiet."}
	copilot.withClient(chat, "test-model")

	reply, err := copilot.Ask(context.Background(), "acme", "anything wrong?")
	require.NoError(t, err)
	assert.Equal(t, CopilotReply{Reply: "All quiet.", Source: "llm"}, reply)
	assert.Equal(t, "test-model", chat.last.Model)
	require.Len(t, chat.last.Messages, 3)
	assert.Equal(t, "anything wrong?", chat.last.Messages[2].Content)
}

func TestCopilot_FallsBackOnLLMError(t *testing.T) {
	copilot, _, _ := newTestCopilot(t)
	copilot.withClient(&fakeChat{err: errors.New("quota exceeded")}, "test-model")

	reply, err := copilot.Ask(context.Background(), "acme", "what is the status")
	require.NoError(t, err)
	assert.Equal(t, "stub", reply.Source)
}

func TestCopilot_WithLLMEmptyKey(t *testing.T) {
	copilot, _, _ := newTestCopilot(t)
	copilot.WithLLM("", "")
	assert.Nil(t, copilot.client)
}
