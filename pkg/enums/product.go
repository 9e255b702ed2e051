package enums

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProductCategory is the closed set of catalog categories the analysis step may assign.
type ProductCategory string

const (
	ProductCategoryClothing       ProductCategory = "Clothing"
	ProductCategoryCosmetics      ProductCategory = "Cosmetics"
	ProductCategoryShoes          ProductCategory = "Shoes"
	ProductCategoryAccessories    ProductCategory = "Accessories"
	ProductCategoryElectronics    ProductCategory = "Electronics"
	ProductCategoryHomeLiving     ProductCategory = "Home & Living"
	ProductCategoryBeautyHealth   ProductCategory = "Beauty & Health"
	ProductCategoryFoodBeverage   ProductCategory = "Food & Beverage"
	ProductCategorySportsOutdoors ProductCategory = "Sports & Outdoors"
	ProductCategoryKidsToys       ProductCategory = "Kids & Toys"
	ProductCategoryAutomotive     ProductCategory = "Automotive"
	ProductCategoryOther          ProductCategory = "Other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryClothing,
	ProductCategoryCosmetics,
	ProductCategoryShoes,
	ProductCategoryAccessories,
	ProductCategoryElectronics,
	ProductCategoryHomeLiving,
	ProductCategoryBeautyHealth,
	ProductCategoryFoodBeverage,
	ProductCategorySportsOutdoors,
	ProductCategoryKidsToys,
	ProductCategoryAutomotive,
	ProductCategoryOther,
}

// ProductCategories returns the categories in display order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory, ignoring case.
func ParseProductCategory(value string) (ProductCategory, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validProductCategories {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// CoerceProductCategory maps free-form model output onto the closed set, falling back to Other.
func CoerceProductCategory(value string) ProductCategory {
	if parsed, err := ParseProductCategory(value); err == nil {
		return parsed
	}
	return ProductCategoryOther
}

// TargetAudience is the optional audience segment of a listing.
type TargetAudience string

const (
	TargetAudienceMen     TargetAudience = "Men"
	TargetAudienceWomen   TargetAudience = "Women"
	TargetAudienceKids    TargetAudience = "Kids"
	TargetAudienceUnisex  TargetAudience = "Unisex"
	TargetAudienceGeneral TargetAudience = "General"
)

var validTargetAudiences = []TargetAudience{
	TargetAudienceMen,
	TargetAudienceWomen,
	TargetAudienceKids,
	TargetAudienceUnisex,
	TargetAudienceGeneral,
}

// String implements fmt.Stringer.
func (a TargetAudience) String() string {
	return string(a)
}

// IsValid reports whether the value is a known TargetAudience.
func (a TargetAudience) IsValid() bool {
	for _, candidate := range validTargetAudiences {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseTargetAudience converts raw input into a TargetAudience, ignoring case.
func ParseTargetAudience(value string) (TargetAudience, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validTargetAudiences {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid target audience %q", value)
}

// ProductStatus tracks a catalog entry through draft, published and archived.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPublished ProductStatus = "published"
	ProductStatusArchived  ProductStatus = "archived"
)

var validProductStatuses = []ProductStatus{
	ProductStatusDraft,
	ProductStatusPublished,
	ProductStatusArchived,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus. Upper-case values written by
// older console builds are accepted.
func ParseProductStatus(value string) (ProductStatus, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductStatuses {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// CanTransitionTo reports whether the catalog allows moving from s to next.
func (s ProductStatus) CanTransitionTo(next ProductStatus) bool {
	switch s {
	case ProductStatusDraft:
		return next == ProductStatusPublished
	case ProductStatusPublished:
		return next == ProductStatusArchived
	case ProductStatusArchived:
		return next == ProductStatusPublished
	}
	return false
}

// UnmarshalJSON accepts any casing so catalogs persisted as "PUBLISHED" still load.
func (s *ProductStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseProductStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
