package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubClient_StubMode(t *testing.T) {
	gh := NewGitHubClient("https://api.github.com", "", "", "")
	assert.False(t, gh.Configured())

	first, err := gh.CreatePullRequest(context.Background(), PullRequestInput{Title: "Fix mapping", Head: "fix/mapping"})
	require.NoError(t, err)
	second, err := gh.CreatePullRequest(context.Background(), PullRequestInput{Title: "Fix auth", Head: "fix/auth"})
	require.NoError(t, err)

	assert.True(t, first.Stub)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, second.Number)
	assert.Contains(t, second.URL, "/pull/2")
}

func TestGitHubClient_RequiresTitleAndHead(t *testing.T) {
	gh := NewGitHubClient("", "", "", "")
	_, err := gh.CreatePullRequest(context.Background(), PullRequestInput{Title: "x"})
	assert.Error(t, err)
	_, err = gh.CreatePullRequest(context.Background(), PullRequestInput{Head: "x"})
	assert.Error(t, err)
}

func TestGitHubClient_CreatesPullRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/integrations/pulls", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var in PullRequestInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "main", in.Base)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"number": 42, "html_url": "https://github.com/acme/integrations/pull/42"}`))
	}))
	defer srv.Close()

	gh := NewGitHubClient(srv.URL, "secret", "acme", "integrations")
	pr, err := gh.CreatePullRequest(context.Background(), PullRequestInput{Title: "Fix", Head: "fix/x"})
	require.NoError(t, err)
	assert.Equal(t, PullRequest{Number: 42, URL: "https://github.com/acme/integrations/pull/42"}, pr)
}

func TestGitHubClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	gh := NewGitHubClient(srv.URL, "secret", "acme", "integrations")
	_, err := gh.CreatePullRequest(context.Background(), PullRequestInput{Title: "Fix", Head: "fix/x"})
	assert.ErrorContains(t, err, "422")
}
