// Package discourse wraps the Discourse REST API used as the migration
// destination.
package discourse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
)

// ErrSolutionsUnsupported means the destination has no solved/accepted-answer
// capability. Marking a post accepted on such a deployment is an explicit
// no-op for callers, not a failure.
var ErrSolutionsUnsupported = errors.New("destination does not support accepted solutions")

// ErrUploadRejected means the upload endpoint answered but returned no usable
// file reference.
var ErrUploadRejected = errors.New("upload response contained no url")

// APIError is a non-2xx answer from the Discourse API.
type APIError struct {
	Status int
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discourse %s returned %d: %s", e.Path, e.Status, e.Body)
}

// TopicRef identifies one existing topic.
type TopicRef struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Category is a Discourse category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Client talks to a Discourse instance using API-key authentication.
type Client struct {
	baseURL     string
	apiKey      string
	apiUsername string
	http        *http.Client
	logger      *slog.Logger
}

// NewClient creates a destination client for the given Discourse instance.
func NewClient(baseURL, apiKey, apiUsername string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		apiUsername: apiUsername,
		http:        &http.Client{},
		logger:      logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Path: path, Body: string(body)}
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Api-Username", c.apiUsername)
	req.Header.Set("Accept", "application/json")
}

// CreateTopic creates a new topic and returns its id.
func (c *Client) CreateTopic(ctx context.Context, title, raw string, tags []string, categoryID int) (int, error) {
	payload := map[string]any{
		"title":    title,
		"raw":      raw,
		"category": categoryID,
	}
	if len(tags) > 0 {
		payload["tags"] = tags
	}

	var created struct {
		ID      int `json:"id"`
		TopicID int `json:"topic_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/posts.json", payload, &created); err != nil {
		return 0, fmt.Errorf("create topic %q: %w", title, err)
	}
	return created.TopicID, nil
}

// CreatePost appends a reply post to an existing topic and returns the
// post id.
func (c *Client) CreatePost(ctx context.Context, topicID int, raw string) (int, error) {
	payload := map[string]any{
		"topic_id": topicID,
		"raw":      raw,
	}

	var created struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/posts.json", payload, &created); err != nil {
		return 0, fmt.Errorf("create post in topic %d: %w", topicID, err)
	}
	return created.ID, nil
}

// AcceptSolution marks a post as the accepted solution of its topic. When
// the instance does not run the solved plugin the endpoint is missing and
// ErrSolutionsUnsupported is returned.
func (c *Client) AcceptSolution(ctx context.Context, topicID, postID int) error {
	payload := map[string]any{
		"id":       postID,
		"topic_id": topicID,
		"post_id":  postID,
	}

	err := c.do(ctx, http.MethodPost, "/solution/accept.json", payload, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusForbidden || apiErr.Status == http.StatusGone) {
		return fmt.Errorf("%w: %v", ErrSolutionsUnsupported, err)
	}
	return err
}

// UploadFile uploads a binary attachment and returns the URL Discourse
// stored it under. An answer without a url fails with ErrUploadRejected.
func (c *Client) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", "composer"); err != nil {
		return "", fmt.Errorf("write upload field: %w", err)
	}
	if err := mw.WriteField("synchronous", "true"); err != nil {
		return "", fmt.Errorf("write upload field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create upload part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads.json", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Status: resp.StatusCode, Path: "/uploads.json", Body: string(body)}
	}

	var upload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &upload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if upload.URL == "" {
		return "", ErrUploadRejected
	}
	return upload.URL, nil
}

// ListTopics returns the topics currently in a category.
func (c *Client) ListTopics(ctx context.Context, categoryID int) ([]TopicRef, error) {
	var listing struct {
		TopicList struct {
			Topics []TopicRef `json:"topics"`
		} `json:"topic_list"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/c/%d.json", categoryID), nil, &listing); err != nil {
		return nil, fmt.Errorf("list topics in category %d: %w", categoryID, err)
	}
	return listing.TopicList.Topics, nil
}

// DeleteTopic removes a topic.
func (c *Client) DeleteTopic(ctx context.Context, topicID int) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/t/%d.json", topicID), nil, nil); err != nil {
		return fmt.Errorf("delete topic %d: %w", topicID, err)
	}
	return nil
}

// Categories returns all categories visible to the API user.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var listing struct {
		CategoryList struct {
			Categories []Category `json:"categories"`
		} `json:"category_list"`
	}
	if err := c.do(ctx, http.MethodGet, "/categories.json", nil, &listing); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return listing.CategoryList.Categories, nil
}

// CreateCategory creates a category and returns it.
func (c *Client) CreateCategory(ctx context.Context, name, color, textColor string) (Category, error) {
	payload := map[string]any{
		"name":       name,
		"color":      color,
		"text_color": textColor,
	}

	var created struct {
		Category Category `json:"category"`
	}
	if err := c.do(ctx, http.MethodPost, "/categories.json", payload, &created); err != nil {
		return Category{}, fmt.Errorf("create category %q: %w", name, err)
	}
	return created.Category, nil
}
