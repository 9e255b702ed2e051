// Package gemini adapts the Generative Language SDK to the narrow calls the console makes.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
)

const (
	defaultBaseURL       = "https://generativelanguage.googleapis.com/"
	defaultAPIVersion    = "v1beta"
	maxDownloadBytes     = 128 << 20
	defaultClientTimeout = 120 * time.Second
)

var errAPIKeyRequired = errors.New("gemini api key is required")

// Client wraps content generation, long-running video operations and file downloads.
type Client struct {
	inner      *genai.Client
	httpClient *http.Client
	baseURL    string
	apiVersion string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API host. A trailing version segment such as "/v1beta" selects the
// API version.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed == "" {
			return
		}
		if idx := strings.LastIndex(trimmed, "/"); idx > len("https://") {
			if last := trimmed[idx+1:]; strings.HasPrefix(last, "v1") {
				c.apiVersion = last
				trimmed = trimmed[:idx]
			}
		}
		c.baseURL = trimmed + "/"
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds an SDK client for the given API key. The key travels in a header, never in URLs.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		apiVersion: defaultAPIVersion,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	inner, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     client.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    client.baseURL,
			APIVersion: client.apiVersion,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "create gemini client")
	}
	client.inner = inner
	return client, nil
}

// GenerateContent runs one non-streaming generation.
func (c *Client) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if c == nil || c.inner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "gemini client not configured")
	}
	if strings.TrimSpace(model) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model is required")
	}
	if len(contents) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contents are required")
	}

	resp, err := c.inner.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, providerError(err, "gemini request failed")
	}
	return resp, nil
}

// StartVideo submits a long-running video generation job and returns the pending operation.
func (c *Client) StartVideo(ctx context.Context, model string, req VideoRequest) (*genai.GenerateVideosOperation, error) {
	if c == nil || c.inner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "gemini client not configured")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "video prompt is required")
	}

	cfg := &genai.GenerateVideosConfig{NumberOfVideos: 1, AspectRatio: req.AspectRatio}
	op, err := c.inner.Models.GenerateVideos(ctx, model, req.Prompt, req.Image, cfg)
	if err != nil {
		return nil, providerError(err, "gemini video request failed")
	}
	if op == nil || op.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "video operation name missing")
	}
	return op, nil
}

// GetOperation refreshes a pending video operation.
func (c *Client) GetOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	if c == nil || c.inner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "gemini client not configured")
	}
	if op == nil || strings.TrimSpace(op.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "operation name is required")
	}
	next, err := c.inner.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, providerError(err, "gemini operation request failed")
	}
	return next, nil
}

// Download returns the bytes of a generated video, fetching them when only a URI came back.
func (c *Client) Download(ctx context.Context, video *genai.Video) ([]byte, string, error) {
	if c == nil || c.inner == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeConfiguration, "gemini client not configured")
	}
	if video == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "video is required")
	}
	if len(video.VideoBytes) > 0 {
		return video.VideoBytes, video.MIMEType, nil
	}
	if strings.TrimSpace(video.URI) == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeDependency, "video has neither bytes nor uri")
	}

	data, err := c.inner.Files.Download(ctx, genai.NewDownloadURIFromVideo(video), nil)
	if err != nil {
		return nil, "", providerError(err, "download generated video")
	}
	if len(data) > maxDownloadBytes {
		return nil, "", pkgerrors.New(pkgerrors.CodePayloadTooLarge, "generated file exceeds download limit")
	}
	return data, video.MIMEType, nil
}

// providerError maps SDK failures onto typed codes. Quota exhaustion keeps its own code so callers
// can tell the operator to retry later.
func providerError(err error, message string) error {
	code := pkgerrors.CodeDependency
	if status := apiStatus(err); status == http.StatusTooManyRequests {
		code = pkgerrors.CodeRateLimit
	}
	return pkgerrors.Wrap(code, err, message)
}

func apiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

// OperationFailure returns the provider's error for a finished operation, or nil.
func OperationFailure(op *genai.GenerateVideosOperation) error {
	if op == nil || len(op.Error) == 0 {
		return nil
	}
	if message, ok := op.Error["message"].(string); ok && message != "" {
		return fmt.Errorf("video operation failed: %s", message)
	}
	return fmt.Errorf("video operation failed: %v", op.Error)
}
