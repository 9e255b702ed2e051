package controllers

import (
	"net/http"

	"github.com/angelmondragon/bazary-backend/api/responses"
	"github.com/angelmondragon/bazary-backend/api/validators"
	"github.com/angelmondragon/bazary-backend/internal/settings"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/models"
)

func SettingsGetShop(svc settings.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Shop(r.Context()))
	}
}

type shopRequest struct {
	Name                 string `json:"name" validate:"required,max=120"`
	Username             string `json:"username" validate:"max=120"`
	Description          string `json:"description" validate:"max=2000"`
	Logo                 string `json:"logo"`
	TelegramToken        string `json:"telegramToken"`
	TelegramChannelID    string `json:"telegramChannelId"`
	InstagramID          string `json:"instagramId"`
	IsInstagramConnected bool   `json:"isInstagramConnected"`
}

// SettingsUpdateShop replaces the whole shop profile.
func SettingsUpdateShop(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload shopRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shop, err := svc.UpdateShop(r.Context(), models.Shop(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}

func SettingsGetUser(svc settings.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.User(r.Context()))
	}
}

type userRequest struct {
	FullName string `json:"fullName" validate:"required,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Avatar   string `json:"avatar"`
}

func SettingsUpdateUser(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload userRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.UpdateUser(r.Context(), models.UserProfile{FullName: payload.FullName, Email: payload.Email, Avatar: payload.Avatar})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

type registerRequest struct {
	FullName string `json:"fullName"`
}

// SettingsRegister completes onboarding and opens the merchant routes.
func SettingsRegister(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Register(r.Context(), payload.FullName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

type telegramRegisterRequest struct {
	ID        int64  `json:"id" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

// SettingsRegisterTelegram completes onboarding from a Telegram Mini App user.
func SettingsRegisterTelegram(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload telegramRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.RegisterTelegramUser(r.Context(), settings.TelegramUserInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func SettingsGetLanguage(svc settings.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"lang": svc.Language(r.Context())})
	}
}

type languageRequest struct {
	Lang string `json:"lang" validate:"required"`
}

func SettingsSelectLanguage(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload languageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lang, err := svc.SelectLanguage(r.Context(), payload.Lang)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"lang": lang})
	}
}
