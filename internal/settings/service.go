// Package settings manages the shop and operator profiles plus the language preference.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/models"
)

type settingsState interface {
	Shop() models.Shop
	User() models.UserProfile
	Language() enums.Language
	SetShop(ctx context.Context, shop models.Shop) error
	SetUser(ctx context.Context, user models.UserProfile) error
	SelectLanguage(ctx context.Context, lang enums.Language) error
}

// Service edits the singleton profiles. Updates replace whole objects.
type Service interface {
	Shop(ctx context.Context) models.Shop
	UpdateShop(ctx context.Context, shop models.Shop) (models.Shop, error)
	User(ctx context.Context) models.UserProfile
	UpdateUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error)
	Register(ctx context.Context, fullName string) (models.UserProfile, error)
	RegisterTelegramUser(ctx context.Context, input TelegramUserInput) (models.UserProfile, error)
	Language(ctx context.Context) enums.Language
	SelectLanguage(ctx context.Context, raw string) (enums.Language, error)
}

// TelegramUserInput is the profile a Telegram Mini App hands over on launch.
type TelegramUserInput struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	PhotoURL  string
}

type service struct {
	state settingsState
}

func NewService(state settingsState) (Service, error) {
	if state == nil {
		return nil, fmt.Errorf("settings state required")
	}
	return &service{state: state}, nil
}

func (s *service) Shop(context.Context) models.Shop {
	return s.state.Shop()
}

func (s *service) UpdateShop(ctx context.Context, shop models.Shop) (models.Shop, error) {
	shop.Name = strings.TrimSpace(shop.Name)
	if shop.Name == "" {
		return models.Shop{}, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required")
	}
	shop.Username = NormalizeHandle(shop.Username)
	shop.TelegramToken = strings.TrimSpace(shop.TelegramToken)
	shop.TelegramChannelID = strings.TrimSpace(shop.TelegramChannelID)
	shop.InstagramID = strings.TrimSpace(shop.InstagramID)
	if err := s.state.SetShop(ctx, shop); err != nil {
		return models.Shop{}, err
	}
	return shop, nil
}

func (s *service) User(context.Context) models.UserProfile {
	return s.state.User()
}

// UpdateUser edits profile fields. The registration flag and id are kept from the stored profile.
func (s *service) UpdateUser(ctx context.Context, user models.UserProfile) (models.UserProfile, error) {
	current := s.state.User()
	user.ID = current.ID
	user.IsRegistered = current.IsRegistered
	user.FullName = strings.TrimSpace(user.FullName)
	user.Email = strings.TrimSpace(user.Email)
	if user.IsRegistered && user.FullName == "" {
		return models.UserProfile{}, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if err := s.state.SetUser(ctx, user); err != nil {
		return models.UserProfile{}, err
	}
	return user, nil
}

func (s *service) Register(ctx context.Context, fullName string) (models.UserProfile, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return models.UserProfile{}, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	user := s.state.User()
	user.FullName = fullName
	user.IsRegistered = true
	if err := s.state.SetUser(ctx, user); err != nil {
		return models.UserProfile{}, err
	}
	return user, nil
}

// RegisterTelegramUser registers the operator from a Mini App launch and adopts their handle for the shop.
func (s *service) RegisterTelegramUser(ctx context.Context, input TelegramUserInput) (models.UserProfile, error) {
	if input.ID == 0 {
		return models.UserProfile{}, pkgerrors.New(pkgerrors.CodeValidation, "telegram user id is required")
	}
	fullName := strings.TrimSpace(strings.TrimSpace(input.FirstName) + " " + strings.TrimSpace(input.LastName))
	if fullName == "" {
		fullName = strings.TrimSpace(input.Username)
	}
	if fullName == "" {
		fullName = "TG User"
	}

	user := s.state.User()
	user.ID = fmt.Sprintf("%d", input.ID)
	user.FullName = fullName
	user.IsRegistered = true
	if input.PhotoURL != "" {
		user.Avatar = input.PhotoURL
	}
	if err := s.state.SetUser(ctx, user); err != nil {
		return models.UserProfile{}, err
	}

	if handle := NormalizeHandle(input.Username); handle != "" {
		shop := s.state.Shop()
		shop.Username = handle
		if err := s.state.SetShop(ctx, shop); err != nil {
			return models.UserProfile{}, err
		}
	}
	return user, nil
}

func (s *service) Language(context.Context) enums.Language {
	return s.state.Language()
}

func (s *service) SelectLanguage(ctx context.Context, raw string) (enums.Language, error) {
	lang, err := enums.ParseLanguage(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "language must be ru or uz")
	}
	if err := s.state.SelectLanguage(ctx, lang); err != nil {
		return "", err
	}
	return lang, nil
}

// NormalizeHandle stores public handles without the leading "@" or a t.me link prefix.
func NormalizeHandle(raw string) string {
	handle := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://", "t.me/", "telegram.me/"} {
		if len(handle) >= len(prefix) && strings.EqualFold(handle[:len(prefix)], prefix) {
			handle = handle[len(prefix):]
		}
	}
	return strings.TrimLeft(handle, "@")
}
