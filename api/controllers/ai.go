package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bazary-backend/api/responses"
	"github.com/angelmondragon/bazary-backend/api/validators"
	"github.com/angelmondragon/bazary-backend/internal/generative"
	"github.com/angelmondragon/bazary-backend/internal/messages"
	"github.com/angelmondragon/bazary-backend/pkg/dataurl"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
)

type analyzeImagesRequest struct {
	Base64Images []string `json:"base64Images"`
	Lang         string   `json:"lang"`
}

// AIAnalyzeImages runs one batch analysis over the supplied photos.
func AIAnalyzeImages(gateway generative.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requireConfigured(gateway); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload analyzeImagesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		images := make([]generative.Image, 0, len(payload.Base64Images))
		for i, raw := range payload.Base64Images {
			img, err := decodeImage(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.As(err).WithDetails(map[string]any{"index": i}))
				return
			}
			images = append(images, img)
		}

		results, err := gateway.Analyze(r.Context(), generative.AnalyzeInput{Images: images, Language: enums.LanguageOrDefault(payload.Lang)})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

type enhanceImageRequest struct {
	Base64Image    string `json:"base64Image"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	TargetAudience string `json:"targetAudience"`
	AspectRatio    string `json:"aspectRatio"`
}

// AIEnhanceImage returns a studio-style variant, or a null image when the provider produced none.
func AIEnhanceImage(gateway generative.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requireConfigured(gateway); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload enhanceImageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(payload.Base64Image) == "" {
			responses.WriteSuccess(w, map[string]any{"imageBase64": nil})
			return
		}
		img, err := decodeImage(payload.Base64Image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ratio, err := parseAspectRatio(payload.AspectRatio)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		audience, _ := enums.ParseTargetAudience(payload.TargetAudience)

		ref, err := gateway.Enhance(r.Context(), generative.EnhanceInput{
			Image:          img,
			Title:          payload.Title,
			Category:       enums.CoerceProductCategory(payload.Category),
			TargetAudience: audience,
			AspectRatio:    ratio,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"imageBase64": nullable(ref)})
	}
}

type generateVideoRequest struct {
	Base64Image string `json:"base64Image"`
	Prompt      string `json:"prompt"`
	Title       string `json:"title"`
	AspectRatio string `json:"aspectRatio"`
}

// AIGenerateVideo submits a video job and holds the request open until it finishes. A client that
// disconnects cancels the job.
func AIGenerateVideo(gateway generative.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requireConfigured(gateway); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload generateVideoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !gateway.VideoEnabled() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotImplemented, messages.Text(enums.DefaultLanguage, messages.VideoDisabled)))
			return
		}
		img, err := decodeImage(payload.Base64Image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ratio, err := parseAspectRatio(payload.AspectRatio)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		task, err := gateway.StartVideo(r.Context(), generative.VideoInput{
			Image:       img,
			Prompt:      payload.Prompt,
			Title:       payload.Title,
			AspectRatio: ratio,
		}, nil)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeDependency) || pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
				if logg != nil {
					logg.Warn(r.Context(), "ai.video.provider_failed")
				}
				responses.WriteSuccess(w, map[string]any{"videoBase64": nil})
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := task.Wait(r.Context())
		if r.Context().Err() != nil {
			task.Cancel()
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "operation_name", task.Operation()), "ai.video.client_gone")
			}
			return
		}
		if err != nil {
			ref = ""
		}
		responses.WriteSuccess(w, map[string]any{"videoBase64": nullable(ref)})
	}
}

type voicePitchRequest struct {
	Text string `json:"text"`
}

func AIVoicePitch(gateway generative.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requireConfigured(gateway); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload voicePitchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := gateway.Voice(r.Context(), payload.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"audioBase64": nullable(ref)})
	}
}

type marketResearchRequest struct {
	Query string `json:"query"`
	Lang  string `json:"lang"`
}

func AIMarketResearch(gateway generative.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requireConfigured(gateway); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload marketResearchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := validators.SanitizeString(payload.Query, validators.MaxPromptLen)
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query is required"))
			return
		}
		result, err := gateway.Research(r.Context(), query, enums.LanguageOrDefault(payload.Lang))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// requireConfigured rejects AI calls up front when the server has no provider key.
func requireConfigured(gateway generative.Gateway) error {
	if gateway.Configured() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConfiguration, messages.Text(enums.DefaultLanguage, messages.MissingAIKey))
}

func decodeImage(raw string) (generative.Image, error) {
	if strings.TrimSpace(raw) == "" {
		return generative.Image{}, pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	mediaType, data, err := dataurl.DecodeImage(raw)
	if err != nil {
		return generative.Image{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image is not valid base64")
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return generative.Image{}, pkgerrors.New(pkgerrors.CodeUnsupportedMedia, "payload is not an image").
			WithDetails(map[string]any{"mimeType": mediaType})
	}
	return generative.Image{MimeType: mediaType, Data: data}, nil
}

func parseAspectRatio(raw string) (enums.AspectRatio, error) {
	ratio, err := enums.ParseAspectRatio(strings.TrimSpace(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid aspect ratio")
	}
	return ratio, nil
}

func nullable(ref string) *string {
	if ref == "" {
		return nil
	}
	return &ref
}
