package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bazary-backend/api/responses"
	"github.com/angelmondragon/bazary-backend/api/validators"
	"github.com/angelmondragon/bazary-backend/internal/catalog"
	"github.com/angelmondragon/bazary-backend/internal/publishing"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/models"
)

// ProductsList supports ?status=, ?category= and a free-text ?q= filter.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter catalog.ListFilter
		if raw := validators.QueryString(r, "status"); raw != "" {
			status, err := enums.ParseProductStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = status
		}
		if raw := validators.QueryString(r, "category"); raw != "" {
			category, err := enums.ParseProductCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category filter"))
				return
			}
			filter.Category = category
		}
		filter.Query = validators.QueryString(r, "q")

		responses.WriteSuccess(w, svc.List(r.Context(), filter))
	}
}

func ProductsGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.Get(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type updateProductRequest struct {
	Title          *string           `json:"title,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Price          *decimal.Decimal  `json:"price,omitempty"`
	Currency       *string           `json:"currency,omitempty" validate:"omitempty,min=3,max=3"`
	Category       *string           `json:"category,omitempty"`
	TargetAudience *string           `json:"targetAudience,omitempty"`
	Status         *string           `json:"status,omitempty"`
	Variants       *[]models.Variant `json:"variants,omitempty"`
}

func (p updateProductRequest) toInput() (catalog.UpdateProductInput, error) {
	input := catalog.UpdateProductInput{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		Variants:    p.Variants,
	}
	if p.Category != nil {
		category, err := enums.ParseProductCategory(*p.Category)
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	if p.TargetAudience != nil {
		var audience enums.TargetAudience
		if *p.TargetAudience != "" {
			parsed, err := enums.ParseTargetAudience(*p.TargetAudience)
			if err != nil {
				return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target audience")
			}
			audience = parsed
		}
		input.TargetAudience = &audience
	}
	if p.Status != nil {
		status, err := enums.ParseProductStatus(*p.Status)
		if err != nil {
			return catalog.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	return input, nil
}

func ProductsUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), chi.URLParam(r, "productId"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductsDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ProductsArchive(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.Archive(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductsRestore(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.Publish(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductsBroadcast pushes a product to the selected channels, or returns a manual share link.
func ProductsBroadcast(svc publishing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var targets publishing.Targets
		if err := validators.DecodeJSONBody(r, &targets); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.PublishProduct(r.Context(), chi.URLParam(r, "productId"), targets)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
