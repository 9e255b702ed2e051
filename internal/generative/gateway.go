// Package generative mediates every call to the generative-AI provider so credentials stay server-side.
package generative

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/angelmondragon/bazary-backend/internal/messages"
	"github.com/angelmondragon/bazary-backend/pkg/config"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/gemini"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/metrics"
)

const providerName = "gemini"

const (
	opAnalyze  = "analyze"
	opEnhance  = "enhance"
	opVideo    = "video"
	opVoice    = "voice"
	opResearch = "research"
	opDownload = "download"
)

// Gateway is the five-operation surface the console depends on.
//
// Analyze fails loudly because the draft flow cannot continue without it. Enhance, Voice and the
// video task are best effort: provider failures yield an empty reference and a nil error. Every
// operation reports CONFIGURATION_ERROR without touching the network when no key is configured.
type Gateway interface {
	Analyze(ctx context.Context, input AnalyzeInput) ([]AnalysisResult, error)
	Enhance(ctx context.Context, input EnhanceInput) (string, error)
	StartVideo(ctx context.Context, input VideoInput, progress ProgressFunc) (*VideoTask, error)
	Voice(ctx context.Context, text string) (string, error)
	Research(ctx context.Context, query string, lang enums.Language) (ResearchResult, error)
	Configured() bool
	VideoEnabled() bool
}

type provider interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	StartVideo(ctx context.Context, model string, req gemini.VideoRequest) (*genai.GenerateVideosOperation, error)
	GetOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	Download(ctx context.Context, video *genai.Video) ([]byte, string, error)
}

// Image is one decoded upload.
type Image struct {
	MimeType string
	Data     []byte
}

type gateway struct {
	cfg     config.AIConfig
	client  provider
	logg    *logger.Logger
	metrics *metrics.ProviderMetrics
	now     func() time.Time
}

// NewGateway wires the gateway to the provider client built from cfg. A missing key is not an error
// here; it surfaces per call so the rest of the console keeps working.
func NewGateway(cfg config.AIConfig, logg *logger.Logger, m *metrics.ProviderMetrics) (Gateway, error) {
	var client provider
	if key := cfg.Key(); key != "" {
		c, err := gemini.NewClient(key, gemini.WithBaseURL(cfg.BaseURL), gemini.WithTimeout(cfg.RequestTimeout))
		if err != nil {
			return nil, err
		}
		client = c
	}
	return newGateway(cfg, client, logg, m), nil
}

func newGateway(cfg config.AIConfig, client provider, logg *logger.Logger, m *metrics.ProviderMetrics) *gateway {
	if logg == nil {
		logg = logger.Nop()
	}
	if cfg.VideoPollInterval <= 0 {
		cfg.VideoPollInterval = 10 * time.Second
	}
	if cfg.TTSVoice == "" {
		cfg.TTSVoice = "Puck"
	}
	return &gateway{cfg: cfg, client: client, logg: logg, metrics: m, now: time.Now}
}

// Configured reports whether a provider key is available.
func (g *gateway) Configured() bool {
	return g.client != nil
}

func (g *gateway) VideoEnabled() bool {
	return g.cfg.VideoEnabled
}

func (g *gateway) ready() error {
	if g.client == nil {
		return pkgerrors.New(pkgerrors.CodeConfiguration, messages.Text(enums.DefaultLanguage, messages.MissingAIKey))
	}
	return nil
}

// observe times fn and records the outcome under operation.
func (g *gateway) observe(operation string, fn func() error) error {
	start := g.now()
	err := fn()
	g.metrics.Observe(providerName, operation, g.now().Sub(start), err)
	return err
}

// bestEffort logs a provider failure that is being swallowed.
func (g *gateway) bestEffort(ctx context.Context, operation string, err error) {
	ctx = g.logg.WithOperation(ctx, operation)
	g.logg.Error(ctx, "generative.best_effort_failed", err)
}
