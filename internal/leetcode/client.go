package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultEndpoint = "https://leetcode.com/graphql"

// Client queries the public LeetCode GraphQL API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a LeetCode API client. An empty endpoint uses the
// public API.
func NewClient(endpoint string) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Submission is one accepted submission from a user's recent activity.
type Submission struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
	Timestamp string `json:"timestamp"`
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		RecentAcSubmissionList []Submission `json:"recentAcSubmissionList"`
		MatchedUser            *struct {
			Username string `json:"username"`
		} `json:"matchedUser"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// RecentAcceptedSubmissions returns up to limit of the user's most recent
// accepted submissions.
func (c *Client) RecentAcceptedSubmissions(ctx context.Context, username string, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `query recentAcSubmissions($username: String!, $limit: Int!) {
  recentAcSubmissionList(username: $username, limit: $limit) {
    id
    title
    titleSlug
    timestamp
  }
}`
	resp, err := c.do(ctx, query, map[string]any{"username": username, "limit": limit})
	if err != nil {
		return nil, err
	}
	return resp.Data.RecentAcSubmissionList, nil
}

// UserExists checks whether a LeetCode username resolves to an account.
func (c *Client) UserExists(ctx context.Context, username string) (bool, error) {
	const query = `query userPublicProfile($username: String!) {
  matchedUser(username: $username) {
    username
  }
}`
	resp, err := c.do(ctx, query, map[string]any{"username": username})
	if err != nil {
		return false, err
	}
	return resp.Data.MatchedUser != nil && resp.Data.MatchedUser.Username != "", nil
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any) (*graphqlResponse, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://leetcode.com")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("leetcode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("leetcode api error: %s", resp.Status)
	}
	var out graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("leetcode decode: %w", err)
	}
	// "user does not exist" arrives as a GraphQL error with a null
	// matchedUser, not an HTTP failure.
	if len(out.Errors) > 0 && out.Data.MatchedUser == nil && out.Data.RecentAcSubmissionList == nil {
		msg := strings.ToLower(out.Errors[0].Message)
		if strings.Contains(msg, "does not exist") || strings.Contains(msg, "not found") {
			return &out, nil
		}
		return nil, fmt.Errorf("leetcode api error: %s", out.Errors[0].Message)
	}
	return &out, nil
}
