package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bazary-backend/api/responses"
	"github.com/angelmondragon/bazary-backend/api/validators"
	"github.com/angelmondragon/bazary-backend/internal/drafts"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/models"
)

const (
	uploadField       = "files"
	multipartMemory   = 32 << 20
	sseKeepAlive      = 15 * time.Second
	sseSubscriberSize = 64
)

// DraftFlow is the draft lifecycle surface the HTTP layer drives.
type DraftFlow interface {
	Snapshot() drafts.Batch
	Analyze(ctx context.Context, uploads []drafts.Upload) (drafts.Batch, error)
	Edit(ctx context.Context, draftID string, patch drafts.DraftPatch) (models.Draft, error)
	EnhanceImage(ctx context.Context, draftID string) error
	SynthesizeVideo(ctx context.Context, draftID string) error
	SynthesizeVoice(ctx context.Context, draftID string) error
	Discard(ctx context.Context)
	Commit(ctx context.Context) ([]models.Product, error)
	Broker() *drafts.StatusBroker
}

func DraftsSnapshot(flow DraftFlow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, flow.Snapshot())
	}
}

// DraftsAnalyze accepts a multipart upload of product photos and returns the reviewed batch.
func DraftsAnalyze(flow DraftFlow, maxFiles int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			responses.WriteError(r.Context(), logg, w, uploadError(err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File[uploadField]
		if maxFiles > 0 && len(headers) > maxFiles {
			headers = headers[:maxFiles]
		}
		uploads := make([]drafts.Upload, 0, len(headers))
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, uploadError(err))
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, uploadError(err))
				return
			}
			uploads = append(uploads, drafts.Upload{Name: header.Filename, Data: data})
		}

		batch, err := flow.Analyze(r.Context(), uploads)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

type draftPatchRequest struct {
	Title           *string          `json:"title,omitempty"`
	Category        *string          `json:"category,omitempty"`
	TargetAudience  *string          `json:"targetAudience,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Description     *string          `json:"description,omitempty"`
	BlueOceanAdvice *string          `json:"blueOceanAdvice,omitempty"`
	VoiceScript     *string          `json:"voiceScript,omitempty"`
	AspectRatio     *string          `json:"aspectRatio,omitempty"`
}

func (p draftPatchRequest) toPatch() (drafts.DraftPatch, error) {
	patch := drafts.DraftPatch{
		Title:           p.Title,
		Price:           p.Price,
		Description:     p.Description,
		BlueOceanAdvice: p.BlueOceanAdvice,
		VoiceScript:     p.VoiceScript,
	}
	if p.Category != nil {
		category, err := enums.ParseProductCategory(*p.Category)
		if err != nil {
			return drafts.DraftPatch{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		patch.Category = &category
	}
	if p.TargetAudience != nil {
		var audience enums.TargetAudience
		if *p.TargetAudience != "" {
			parsed, err := enums.ParseTargetAudience(*p.TargetAudience)
			if err != nil {
				return drafts.DraftPatch{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target audience")
			}
			audience = parsed
		}
		patch.TargetAudience = &audience
	}
	if p.AspectRatio != nil {
		ratio, err := parseAspectRatio(*p.AspectRatio)
		if err != nil {
			return drafts.DraftPatch{}, err
		}
		patch.AspectRatio = &ratio
	}
	return patch, nil
}

func DraftsEdit(flow DraftFlow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload draftPatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch, err := payload.toPatch()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draft, err := flow.Edit(r.Context(), chi.URLParam(r, "draftId"), patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// DraftsAction starts an enhancement-class action. Progress is reported on the event stream.
func DraftsAction(flow DraftFlow, action drafts.Action, logg *logger.Logger) http.HandlerFunc {
	start := map[drafts.Action]func(context.Context, string) error{
		drafts.ActionEnhance: flow.EnhanceImage,
		drafts.ActionVideo:   flow.SynthesizeVideo,
		drafts.ActionVoice:   flow.SynthesizeVoice,
	}[action]

	return func(w http.ResponseWriter, r *http.Request) {
		if start == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown draft action %q", action)))
			return
		}
		draftID := chi.URLParam(r, "draftId")
		if err := start(r.Context(), draftID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]any{"draftId": draftID, "action": action})
	}
}

func DraftsDiscard(flow DraftFlow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flow.Discard(r.Context())
		responses.WriteSuccess(w, flow.Snapshot())
	}
}

func DraftsCommit(flow DraftFlow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := flow.Commit(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, products)
	}
}

// DraftsEvents streams status events as Server-Sent Events until the client goes away.
func DraftsEvents(flow DraftFlow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		events, cancel := flow.Broker().Subscribe(sseSubscriberSize)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		if err := writeEvent(w, "snapshot", flow.Snapshot()); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "drafts.events.flush_unsupported", err)
			}
			return
		}

		ticker := time.NewTicker(sseKeepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(w, "status", ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodePayloadTooLarge, err, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid photo upload")
}
