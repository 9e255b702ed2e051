package models

import (
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Draft is an unsaved listing produced by image analysis and edited during review.
type Draft struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Category        enums.ProductCategory `json:"category"`
	TargetAudience  enums.TargetAudience  `json:"targetAudience,omitempty"`
	Price           decimal.Decimal       `json:"price"`
	Currency        string                `json:"currency"`
	Description     string                `json:"description"`
	ImageURL        string                `json:"imageUrl"`
	VideoURL        string                `json:"videoUrl,omitempty"`
	AudioURL        string                `json:"audioUrl,omitempty"`
	BlueOceanAdvice string                `json:"blueOceanAdvice,omitempty"`
	ScarcityScore   *int                  `json:"scarcityScore,omitempty"`
	VoiceScript     string                `json:"voiceScript,omitempty"`
	Stage           enums.ProductStatus   `json:"stage"`
	AspectRatio     enums.AspectRatio     `json:"aspectRatio"`
	CreatedAt       int64                 `json:"createdAt"`
}

// Clone returns a copy that does not alias the score pointer.
func (d Draft) Clone() Draft {
	out := d
	if d.ScarcityScore != nil {
		score := *d.ScarcityScore
		out.ScarcityScore = &score
	}
	return out
}

// ToProduct promotes the draft to a published catalog entry.
func (d Draft) ToProduct(currency string, createdAt int64) Product {
	return Product{
		ID:             d.ID,
		Title:          d.Title,
		Description:    d.Description,
		Price:          d.Price,
		Currency:       currency,
		Category:       d.Category,
		TargetAudience: d.TargetAudience,
		ImageURL:       d.ImageURL,
		VideoURL:       d.VideoURL,
		AudioURL:       d.AudioURL,
		Status:         enums.ProductStatusPublished,
		Variants:       []Variant{},
		CreatedAt:      createdAt,
	}
}
