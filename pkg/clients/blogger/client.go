package blogger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the Blogger v3 API root.
const DefaultBaseURL = "https://www.googleapis.com/blogger/v3"

// ErrNotConfigured is returned when the blog id or API key is missing.
var ErrNotConfigured = errors.New("blog feed not configured")

// Client fetches the posts of one blog.
type Client interface {
	Posts(ctx context.Context) ([]Post, error)
}

// Author is the post author as reported by the API.
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Post is one Blogger post. Content is HTML.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
}

type postList struct {
	Items []Post `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Config holds connection settings for the blog feed.
type Config struct {
	BaseURL string
	BlogID  string
	APIKey  string
	Timeout time.Duration
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	blogID     string
	apiKey     string
}

// NewClient builds a blog feed client. BaseURL defaults to DefaultBaseURL.
func NewClient(cfg Config) *APIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &APIClient{
		httpClient: restyClient,
		blogID:     strings.TrimSpace(cfg.BlogID),
		apiKey:     strings.TrimSpace(cfg.APIKey),
	}
}

// Posts returns the blog's posts, newest first as served by the API.
func (c *APIClient) Posts(ctx context.Context) ([]Post, error) {
	if c.blogID == "" || c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	result := new(postList)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		ExpectContentType("application/json").
		SetResult(result).
		SetError(apiErr).
		Get("/blogs/" + url.PathEscape(c.blogID) + "/posts")
	if err != nil {
		return nil, fmt.Errorf("blogger request: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("blogger api error: code=%d, message=%s", resp.StatusCode(), apiErr.Error.Message)
	}

	if result.Items == nil {
		return []Post{}, nil
	}
	return result.Items, nil
}
