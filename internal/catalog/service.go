package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/models"
	"github.com/shopspring/decimal"
)

type catalogState interface {
	Products() []models.Product
	Product(id string) (models.Product, bool)
	Orders() []models.Order
	UpdateProduct(ctx context.Context, id string, mutate func(*models.Product) error) (models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Service exposes catalog management for the single operator.
type Service interface {
	List(ctx context.Context, filter ListFilter) []models.Product
	Get(ctx context.Context, id string) (models.Product, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (models.Product, error)
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) (models.Product, error)
	Publish(ctx context.Context, id string) (models.Product, error)
	Stats(ctx context.Context) Stats
}

// ListFilter narrows the catalog listing; zero values match everything.
type ListFilter struct {
	Status   enums.ProductStatus
	Category enums.ProductCategory
	Query    string
}

// UpdateProductInput carries optional field replacements.
type UpdateProductInput struct {
	Title          *string
	Description    *string
	Price          *decimal.Decimal
	Currency       *string
	Category       *enums.ProductCategory
	TargetAudience *enums.TargetAudience
	Status         *enums.ProductStatus
	Variants       *[]models.Variant
}

// Stats backs the dashboard tiles.
type Stats struct {
	Products       int             `json:"products"`
	Published      int             `json:"published"`
	Archived       int             `json:"archived"`
	WithVideo      int             `json:"withVideo"`
	Orders         int             `json:"orders"`
	NewOrders      int             `json:"newOrders"`
	Revenue        decimal.Decimal `json:"revenue"`
	RevenueDisplay string          `json:"revenueDisplay"`
}

type service struct {
	state catalogState
}

func NewService(state catalogState) (Service, error) {
	if state == nil {
		return nil, fmt.Errorf("catalog state required")
	}
	return &service{state: state}, nil
}

func (s *service) List(_ context.Context, filter ListFilter) []models.Product {
	products := s.state.Products()
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *service) Get(_ context.Context, id string) (models.Product, error) {
	product, ok := s.state.Product(id)
	if !ok {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateProductInput) (models.Product, error) {
	return s.state.UpdateProduct(ctx, id, func(p *models.Product) error {
		return applyUpdate(p, input)
	})
}

func applyUpdate(p *models.Product, input UpdateProductInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		p.Title = title
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		p.Price = *input.Price
	}
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if currency == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
		}
		p.Currency = currency
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		p.Category = *input.Category
	}
	if input.TargetAudience != nil {
		if *input.TargetAudience != "" && !input.TargetAudience.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid target audience")
		}
		p.TargetAudience = *input.TargetAudience
	}
	if input.Variants != nil {
		variants, err := normalizeVariants(*input.Variants)
		if err != nil {
			return err
		}
		p.Variants = variants
	}
	if input.Status != nil && *input.Status != p.Status {
		if err := transition(p, *input.Status); err != nil {
			return err
		}
	}
	return nil
}

func normalizeVariants(in []models.Variant) ([]models.Variant, error) {
	out := make([]models.Variant, 0, len(in))
	for _, v := range in {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name is required")
		}
		options := make([]string, 0, len(v.Options))
		for _, opt := range v.Options {
			if opt = strings.TrimSpace(opt); opt != "" {
				options = append(options, opt)
			}
		}
		out = append(out, models.Variant{Name: name, Options: options})
	}
	return out, nil
}

func transition(p *models.Product, next enums.ProductStatus) error {
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	if !p.Status.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move product from %s to %s", p.Status, next)).
			WithDetails(map[string]any{"from": p.Status, "to": next})
	}
	p.Status = next
	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.state.DeleteProduct(ctx, id)
}

func (s *service) Archive(ctx context.Context, id string) (models.Product, error) {
	return s.setStatus(ctx, id, enums.ProductStatusArchived)
}

func (s *service) Publish(ctx context.Context, id string) (models.Product, error) {
	return s.setStatus(ctx, id, enums.ProductStatusPublished)
}

func (s *service) setStatus(ctx context.Context, id string, next enums.ProductStatus) (models.Product, error) {
	return s.state.UpdateProduct(ctx, id, func(p *models.Product) error {
		return transition(p, next)
	})
}

func (s *service) Stats(_ context.Context) Stats {
	var stats Stats
	for _, p := range s.state.Products() {
		stats.Products++
		switch p.Status {
		case enums.ProductStatusPublished:
			stats.Published++
		case enums.ProductStatusArchived:
			stats.Archived++
		}
		if p.HasVideo() {
			stats.WithVideo++
		}
	}
	stats.Revenue = decimal.Zero
	for _, o := range s.state.Orders() {
		stats.Orders++
		if o.Status == enums.OrderStatusNew {
			stats.NewOrders++
		}
		stats.Revenue = stats.Revenue.Add(o.Total)
	}
	stats.RevenueDisplay = models.FormatAmount(stats.Revenue) + " " + models.DefaultCurrency
	return stats
}
