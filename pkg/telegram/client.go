// Package telegram sends media posts through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
)

const (
	defaultBaseURL       = "https://api.telegram.org"
	defaultClientTimeout = 60 * time.Second
	ParseModeHTML        = string(tgmodels.ParseModeHTML)

	redactedToken = "<redacted>"
)

// apiFailures maps the library's rejection sentinels to Bot API error codes.
var apiFailures = []struct {
	sentinel error
	code     int
}{
	{bot.ErrorBadRequest, http.StatusBadRequest},
	{bot.ErrorUnauthorized, http.StatusUnauthorized},
	{bot.ErrorForbidden, http.StatusForbidden},
	{bot.ErrorNotFound, http.StatusNotFound},
	{bot.ErrorConflict, http.StatusConflict},
	{bot.ErrorTooManyRequests, http.StatusTooManyRequests},
}

// Client posts to sendPhoto and sendVideo.
type Client struct {
	httpClient *http.Client
	baseURL    string
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

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
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

// NewClient builds a Bot API client. Tokens are per request because each shop supplies its own bot.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Media is either a remote URL the platform fetches itself or an uploaded file.
type Media struct {
	URL         string
	Data        []byte
	FileName    string
	ContentType string
}

// SendMediaRequest describes one photo or video post.
type SendMediaRequest struct {
	Token     string
	ChatID    string
	Caption   string
	ParseMode string
	Kind      enums.MediaKind
	Media     Media
}

// APIError is a non-ok Bot API reply.
type APIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram status %d: %s", e.StatusCode, e.Description)
}

// SendMedia submits the post. Provider rejections are returned as *APIError and transport failures
// as DEPENDENCY_ERROR. The bot token never appears in a returned error.
func (c *Client) SendMedia(ctx context.Context, req SendMediaRequest) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "telegram client not configured")
	}
	if strings.TrimSpace(req.Token) == "" || strings.TrimSpace(req.ChatID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "bot token and chat id are required")
	}
	if !req.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported media kind")
	}
	if req.Media.URL == "" && len(req.Media.Data) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "media is required")
	}

	b, err := bot.New(req.Token,
		bot.WithSkipGetMe(),
		bot.WithServerURL(c.baseURL),
		bot.WithHTTPClient(c.httpClient.Timeout, c.httpClient),
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, Redact(err, req.Token), "invalid bot token")
	}

	parseMode := tgmodels.ParseMode(req.ParseMode)
	switch req.Kind {
	case enums.MediaKindVideo:
		_, err = b.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:    req.ChatID,
			Video:     inputFile(req),
			Caption:   req.Caption,
			ParseMode: parseMode,
		})
	default:
		_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:    req.ChatID,
			Photo:     inputFile(req),
			Caption:   req.Caption,
			ParseMode: parseMode,
		})
	}
	if err != nil {
		return classify(err, req.Token)
	}
	return nil
}

func inputFile(req SendMediaRequest) tgmodels.InputFile {
	if req.Media.URL != "" {
		return &tgmodels.InputFileString{Data: req.Media.URL}
	}
	return &tgmodels.InputFileUpload{Filename: fileName(req), Data: bytes.NewReader(req.Media.Data)}
}

func classify(err error, token string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// url.Error carries the request URL, which embeds the token.
		return pkgerrors.Wrap(pkgerrors.CodeDependency, Redact(urlErr.Err, token), "telegram request failed")
	}
	for _, failure := range apiFailures {
		if errors.Is(err, failure.sentinel) {
			description := strings.TrimPrefix(err.Error(), failure.sentinel.Error()+", ")
			return &APIError{
				StatusCode:  failure.code,
				ErrorCode:   failure.code,
				Description: redactText(description, token),
			}
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, Redact(err, token), "telegram request failed")
}

// Redact returns err with every occurrence of token masked. Errors that do not mention the token
// are returned unchanged.
func Redact(err error, token string) error {
	if err == nil || strings.TrimSpace(token) == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(redactText(err.Error(), token))
}

func redactText(text, token string) string {
	if strings.TrimSpace(token) == "" {
		return text
	}
	return strings.ReplaceAll(text, token, redactedToken)
}

func fileName(req SendMediaRequest) string {
	if req.Media.FileName != "" {
		return req.Media.FileName
	}
	if req.Kind == enums.MediaKindVideo {
		return "video.mp4"
	}
	return "photo.jpg"
}
