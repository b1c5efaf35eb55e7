package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

type PullRequestInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"html_url"`
	Stub   bool   `json:"stub"`
}

// GitHubClient opens pull requests on one repository. Without a token it
// returns stub PRs so the demo flow still completes.
type GitHubClient struct {
	baseURL string
	token   string
	owner   string
	repo    string
	client  *http.Client
	stubSeq int64
}

func NewGitHubClient(baseURL, token, owner, repo string) *GitHubClient {
	return &GitHubClient{
		baseURL: baseURL,
		token:   token,
		owner:   owner,
		repo:    repo,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *GitHubClient) Configured() bool {
	return g.token != "" && g.owner != "" && g.repo != ""
}

func (g *GitHubClient) CreatePullRequest(ctx context.Context, in PullRequestInput) (PullRequest, error) {
	if in.Title == "" || in.Head == "" {
		return PullRequest{}, fmt.Errorf("title and head are required")
	}
	if in.Base == "" {
		in.Base = "main"
	}
	if !g.Configured() {
		n := int(atomic.AddInt64(&g.stubSeq, 1))
		return PullRequest{
			Number: n,
			URL:    fmt.Sprintf("https://github.com/example/integrations/pull/%d", n),
			Stub:   true,
		}, nil
	}

	body, err := json.Marshal(in)
	if err != nil {
		return PullRequest{}, err
	}
	url := fmt.Sprintf("%s/repos/%s/%s/pulls", g.baseURL, g.owner, g.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return PullRequest{}, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return PullRequest{}, fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return PullRequest{}, fmt.Errorf("github API error: status %d", resp.StatusCode)
	}
	var pr PullRequest
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return PullRequest{}, fmt.Errorf("decode github response: %w", err)
	}
	return pr, nil
}
