package classifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Task selects the classifier endpoint.
type Task string

const (
	TaskGrowth  Task = "growth"
	TaskDisease Task = "disease"
)

// Client exposes the image classifier used for detections.
type Client interface {
	Detect(ctx context.Context, task Task, filename string, image io.Reader) ([]Prediction, error)
}

// Prediction is one detection returned by the classifier.
type Prediction struct {
	ID         int       `json:"id"`
	ClassID    int       `json:"class_id"`
	ClassName  string    `json:"class_name"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox,omitempty"`
}

type detectResponse struct {
	Predictions []Prediction `json:"predictions"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Config holds connection settings for the classifier service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a classifier client.
func NewClient(cfg Config) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &APIClient{httpClient: restyClient}
}

func endpoint(task Task) (string, error) {
	switch task {
	case TaskGrowth:
		return "/detect-growth", nil
	case TaskDisease:
		return "/detect-disease", nil
	default:
		return "", fmt.Errorf("unknown classifier task %q", task)
	}
}

// Detect uploads the image as multipart field "image" and returns the predictions
// in the order the service produced them. An empty slice means nothing was detected.
func (c *APIClient) Detect(ctx context.Context, task Task, filename string, image io.Reader) ([]Prediction, error) {
	path, err := endpoint(task)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = "upload.jpg"
	}

	result := new(detectResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("image", filename, image).
		ExpectContentType("application/json").
		SetResult(result).
		SetError(apiErr).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return nil, fmt.Errorf("classifier api error: code=%d, message=%s", resp.StatusCode(), message)
	}

	if result.Predictions == nil {
		return []Prediction{}, nil
	}
	return result.Predictions, nil
}
