// Package publishing broadcasts catalog entries to the shop's Telegram channel.
package publishing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bazary-backend/internal/messages"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/metrics"
	"github.com/angelmondragon/bazary-backend/pkg/models"
	"github.com/angelmondragon/bazary-backend/pkg/telegram"
)

const providerName = "telegram"

type sender interface {
	SendMedia(ctx context.Context, req telegram.SendMediaRequest) error
}

type publishingState interface {
	Product(id string) (models.Product, bool)
	Shop() models.Shop
	Language() enums.Language
	UpdateProduct(ctx context.Context, id string, mutate func(*models.Product) error) (models.Product, error)
}

// Service sends posts and records per-channel publication flags.
type Service interface {
	Send(ctx context.Context, input SendInput) Result
	PublishProduct(ctx context.Context, id string, targets Targets) (PublishResult, error)
}

// SendInput is one raw send request; Recipient may be a link, handle or numeric id.
type SendInput struct {
	Token     string
	Recipient string
	Caption   string
	MediaRef  string
	Kind      enums.MediaKind
	Language  enums.Language
}

// Result reports a send outcome. Error is already operator-facing text.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Targets are the channel toggles offered in the publish dialog.
type Targets struct {
	Bot       bool `json:"bot"`
	Channel   bool `json:"channel"`
	Instagram bool `json:"instagram"`
}

func (t Targets) any() bool {
	return t.Bot || t.Channel || t.Instagram
}

// PublishResult is returned by PublishProduct. ShareURL is set when the manual share flow was used.
type PublishResult struct {
	Product  models.Product `json:"product"`
	Manual   bool           `json:"manual"`
	ShareURL string         `json:"shareUrl,omitempty"`
	Result   Result         `json:"result"`
}

type service struct {
	sender  sender
	state   publishingState
	logg    *logger.Logger
	metrics *metrics.ProviderMetrics
}

func NewService(sender sender, state publishingState, logg *logger.Logger, m *metrics.ProviderMetrics) (Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("telegram sender required")
	}
	if state == nil {
		return nil, fmt.Errorf("publishing state required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{sender: sender, state: state, logg: logg, metrics: m}, nil
}

// Send validates locally, then makes exactly one attempt. It never returns a Go error; failures are
// described in Result.
func (s *service) Send(ctx context.Context, input SendInput) Result {
	lang := input.Language
	if !lang.IsValid() {
		lang = enums.DefaultLanguage
	}
	recipient := NormalizeRecipient(input.Recipient)
	switch {
	case strings.TrimSpace(input.Token) == "":
		return Result{Error: "bot token is required"}
	case recipient == "":
		return Result{Error: "channel id is required"}
	case strings.TrimSpace(input.Caption) == "":
		return Result{Error: "caption is required"}
	}
	kind := input.Kind
	if kind == "" {
		kind = enums.MediaKindPhoto
	}
	if !kind.IsValid() {
		return Result{Error: "unsupported media kind"}
	}
	media, err := ResolveMedia(input.MediaRef, kind)
	if err != nil {
		return Result{Error: publicMessage(err)}
	}

	token := strings.TrimSpace(input.Token)
	start := time.Now()
	err = s.sender.SendMedia(ctx, telegram.SendMediaRequest{
		Token:     token,
		ChatID:    recipient,
		Caption:   input.Caption,
		ParseMode: telegram.ParseModeHTML,
		Kind:      kind,
		Media:     media,
	})
	s.metrics.Observe(providerName, "send_"+kind.String(), time.Since(start), err)
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"chat_id": recipient, "kind": kind.String()})
		s.logg.Error(logCtx, "publishing.send_failed", telegram.Redact(err, token))
		return Result{Error: strings.ReplaceAll(MapSendError(err, lang), token, "<redacted>")}
	}
	return Result{Success: true}
}

// MapSendError converts a send failure into the message shown to the operator.
func MapSendError(err error, lang enums.Language) string {
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		description := apiErr.Description
		switch {
		case strings.Contains(description, "chat not found"):
			return messages.Text(lang, messages.ChatNotFound)
		case strings.Contains(description, "admin rights"), strings.Contains(description, "administrator rights"):
			return messages.Text(lang, messages.NoAdminRights)
		case description != "":
			return description
		}
		return messages.Text(lang, messages.UnknownAPIError)
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		return messages.Text(lang, messages.NetworkError)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return publicMessage(typed)
	}
	if text := err.Error(); text != "" {
		return text
	}
	return messages.Text(lang, messages.NetworkError)
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

// PublishProduct publishes one catalog entry to the selected targets. Without a bot token the caller
// gets a share link and the flags are set optimistically. With a token the channel post is sent and
// flags are only recorded when it succeeds.
func (s *service) PublishProduct(ctx context.Context, id string, targets Targets) (PublishResult, error) {
	if !targets.any() {
		return PublishResult{}, pkgerrors.New(pkgerrors.CodeValidation, "select at least one channel")
	}
	product, ok := s.state.Product(id)
	if !ok {
		return PublishResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	shop := s.state.Shop()
	lang := s.state.Language()

	if (targets.Bot || targets.Channel) && !shop.HasBotToken() {
		updated, err := s.state.UpdateProduct(ctx, id, func(p *models.Product) error {
			prev := flagsOf(p)
			p.PublishedTo = &models.PublishedTo{
				TelegramBot:     targets.Bot,
				TelegramChannel: targets.Channel,
				Instagram:       targets.Instagram && prev.Instagram,
			}
			return nil
		})
		if err != nil {
			return PublishResult{}, err
		}
		return PublishResult{Product: updated, Manual: true, ShareURL: ShareLink(product, shop), Result: Result{Success: true}}, nil
	}

	result := Result{Success: true}
	if targets.Channel && shop.HasBotToken() && shop.TelegramChannelID != "" {
		kind, ref := enums.MediaKindPhoto, product.ImageURL
		if product.HasVideo() {
			kind, ref = enums.MediaKindVideo, product.VideoURL
		}
		result = s.Send(ctx, SendInput{
			Token:     shop.TelegramToken,
			Recipient: shop.TelegramChannelID,
			Caption:   BuildCaption(product),
			MediaRef:  ref,
			Kind:      kind,
			Language:  lang,
		})
	}
	if !result.Success {
		return PublishResult{Product: product, Result: result}, nil
	}

	updated, err := s.state.UpdateProduct(ctx, id, func(p *models.Product) error {
		prev := flagsOf(p)
		p.PublishedTo = &models.PublishedTo{
			TelegramBot:     targets.Bot || prev.TelegramBot,
			TelegramChannel: targets.Channel || prev.TelegramChannel,
			Instagram:       targets.Instagram || prev.Instagram,
		}
		return nil
	})
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Product: updated, Result: result}, nil
}

func flagsOf(p *models.Product) models.PublishedTo {
	if p.PublishedTo == nil {
		return models.PublishedTo{}
	}
	return *p.PublishedTo
}
