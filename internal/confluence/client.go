// Package confluence wraps the Confluence Questions REST API used as the
// migration source.
package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const questionsAPIPath = "/rest/questions/1.0"

// Client talks to a Confluence instance with basic auth. All calls are
// synchronous; timeouts are left to the underlying http.Client.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a source client for the given Confluence instance.
func NewClient(baseURL, username, password string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{},
		logger:   logger,
	}
}

// BaseURL returns the configured instance URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("confluence returned %s for %s: %s", resp.Status, path, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// FetchQuestions returns one page of questions, optionally scoped to a space.
// A page shorter than limit signals that the corpus is exhausted.
func (c *Client) FetchQuestions(ctx context.Context, spaceKey string, limit, start int) ([]Question, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("start", strconv.Itoa(start))
	if spaceKey != "" {
		query.Set("spaceKey", spaceKey)
	}

	var questions []Question
	if err := c.get(ctx, questionsAPIPath+"/question", query, &questions); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched questions page", "start", start, "count", len(questions))
	return questions, nil
}

// QuestionDetails fetches the full record for one question, including its
// body and comment list.
func (c *Client) QuestionDetails(ctx context.Context, id int64) (*Question, error) {
	var q Question
	if err := c.get(ctx, fmt.Sprintf("%s/question/%d", questionsAPIPath, id), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Answers fetches the replies for a question. Both payload shapes the API
// produces are accepted; see AnswerPage.
func (c *Client) Answers(ctx context.Context, questionID int64) (*AnswerPage, error) {
	var page AnswerPage
	if err := c.get(ctx, fmt.Sprintf("%s/question/%d/answers", questionsAPIPath, questionID), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AnswerDetails fetches the full record for one answer, including its body
// and comment list.
func (c *Client) AnswerDetails(ctx context.Context, id int64) (*Answer, error) {
	var a Answer
	if err := c.get(ctx, fmt.Sprintf("%s/answer/%d", questionsAPIPath, id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DownloadAttachment fetches a binary asset with the client's credentials.
// The URL must already be absolute.
func (c *Client) DownloadAttachment(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: %s", rawURL, resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read attachment body: %w", err)
	}
	return content, nil
}
