package models

import (
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Variant is a named option group such as size or color.
type Variant struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// PublishedTo records which channels a product has been broadcast to.
type PublishedTo struct {
	TelegramBot     bool `json:"telegramBot,omitempty"`
	TelegramChannel bool `json:"telegramChannel,omitempty"`
	Instagram       bool `json:"instagram,omitempty"`
}

// Product is a persistent catalog entry.
type Product struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Price          decimal.Decimal       `json:"price"`
	Currency       string                `json:"currency"`
	Category       enums.ProductCategory `json:"category"`
	TargetAudience enums.TargetAudience  `json:"targetAudience,omitempty"`
	ImageURL       string                `json:"imageUrl"`
	VideoURL       string                `json:"videoUrl,omitempty"`
	AudioURL       string                `json:"audioUrl,omitempty"`
	Status         enums.ProductStatus   `json:"status"`
	Variants       []Variant             `json:"variants"`
	CreatedAt      int64                 `json:"createdAt"`
	PublishedTo    *PublishedTo          `json:"publishedTo,omitempty"`
}

// Clone returns a deep copy so callers never share slices with the catalog.
func (p Product) Clone() Product {
	out := p
	out.Variants = make([]Variant, len(p.Variants))
	for i, v := range p.Variants {
		out.Variants[i] = Variant{Name: v.Name, Options: append([]string(nil), v.Options...)}
	}
	if p.PublishedTo != nil {
		flags := *p.PublishedTo
		out.PublishedTo = &flags
	}
	return out
}

// HasVideo reports whether an AI video is attached.
func (p Product) HasVideo() bool {
	return p.VideoURL != ""
}

// CloneProducts deep-copies a product slice.
func CloneProducts(in []Product) []Product {
	out := make([]Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
