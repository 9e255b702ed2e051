package generative

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/angelmondragon/bazary-backend/internal/messages"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/gemini"
	"github.com/shopspring/decimal"
)

var dotGroupedThousands = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

const (
	minScarcity = 1
	maxScarcity = 100
)

// AnalyzeInput is one batch of images to describe.
type AnalyzeInput struct {
	Images   []Image
	Language enums.Language
}

// AnalysisResult is one validated listing proposal, positionally matching an input image.
type AnalysisResult struct {
	Title           string                `json:"title"`
	Category        enums.ProductCategory `json:"category"`
	TargetAudience  enums.TargetAudience  `json:"targetAudience,omitempty"`
	Price           decimal.Decimal       `json:"price"`
	Description     string                `json:"description"`
	BlueOceanAdvice string                `json:"blueOceanAdvice,omitempty"`
	ScarcityScore   *int                  `json:"scarcityScore,omitempty"`
	VoiceScript     string                `json:"voiceScript,omitempty"`
}

type rawAnalysis struct {
	Title           string          `json:"title"`
	Category        string          `json:"category"`
	TargetAudience  string          `json:"targetAudience"`
	Price           json.RawMessage `json:"price"`
	Description     string          `json:"description"`
	BlueOceanAdvice string          `json:"blueOceanAdvice"`
	ScarcityScore   json.RawMessage `json:"scarcityScore"`
	VoiceScript     string          `json:"voiceScript"`
}

func (g *gateway) Analyze(ctx context.Context, input AnalyzeInput) ([]AnalysisResult, error) {
	if len(input.Images) == 0 {
		return []AnalysisResult{}, nil
	}
	if err := g.ready(); err != nil {
		return nil, err
	}
	lang := input.Language
	if !lang.IsValid() {
		lang = enums.DefaultLanguage
	}

	parts := make([]*genai.Part, 0, len(input.Images)+1)
	for _, img := range input.Images {
		mimeType := img.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		parts = append(parts, gemini.InlinePart(mimeType, img.Data))
	}
	parts = append(parts, gemini.TextPart(analyzePrompt(lang)))

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
	}

	var resp *genai.GenerateContentResponse
	err := g.observe(opAnalyze, func() error {
		var callErr error
		resp, callErr = g.client.GenerateContent(ctx, g.cfg.AnalyzeModel, gemini.UserTurn(parts...), cfg)
		return callErr
	})
	if err != nil {
		return nil, analyzeError(lang, err)
	}

	results, err := ParseAnalysis(gemini.Text(resp))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, messages.Text(lang, messages.AnalyzeFailed))
	}
	return results, nil
}

func analyzeError(lang enums.Language, err error) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeRateLimit {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, messages.Text(lang, messages.AnalyzeFailed))
}

func analyzePrompt(lang enums.Language) string {
	categories := make([]string, 0, len(enums.ProductCategories()))
	for _, c := range enums.ProductCategories() {
		categories = append(categories, c.String())
	}
	return fmt.Sprintf(`TASK: Blue Ocean Merchant Strategist.
Analyze these product images, one result per image, in the same order as the images.
For each product return: title (creative brand name), category (one of [%s]), targetAudience (one of [Men, Women, Kids, Unisex, General]), price (premium but fair, number in UZS), description (compelling Telegram post in %s), blueOceanAdvice (one unique reason to buy this instead of cheap competitors), scarcityScore (1-100), voiceScript (a short spoken pitch in %s).
Output strict JSON only: a JSON array.`, strings.Join(categories, ", "), lang.PromptName(), lang.PromptName())
}

func analysisSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":           str(),
				"category":        str(),
				"targetAudience":  str(),
				"price":           {Type: genai.TypeNumber},
				"description":     str(),
				"blueOceanAdvice": str(),
				"scarcityScore":   {Type: genai.TypeInteger},
				"voiceScript":     str(),
			},
			Required: []string{"title", "category", "price", "description", "blueOceanAdvice", "scarcityScore", "voiceScript"},
		},
	}
}

// ParseAnalysis validates the model's JSON at the boundary. A bare object is treated as a batch of
// one and code fences are tolerated. An empty or unusable batch is an error.
func ParseAnalysis(text string) ([]AnalysisResult, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, fmt.Errorf("empty analysis response")
	}
	if strings.HasPrefix(text, "{") {
		text = "[" + text + "]"
	}

	var raw []rawAnalysis
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("analysis returned no products")
	}

	out := make([]AnalysisResult, 0, len(raw))
	for i, item := range raw {
		result, err := item.validate()
		if err != nil {
			return nil, fmt.Errorf("analysis item %d: %w", i, err)
		}
		out = append(out, result)
	}
	return out, nil
}

func (r rawAnalysis) validate() (AnalysisResult, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return AnalysisResult{}, fmt.Errorf("title is empty")
	}
	price, err := parsePrice(r.Price)
	if err != nil {
		return AnalysisResult{}, err
	}

	result := AnalysisResult{
		Title:           title,
		Category:        enums.CoerceProductCategory(r.Category),
		Price:           price,
		Description:     strings.TrimSpace(r.Description),
		BlueOceanAdvice: strings.TrimSpace(r.BlueOceanAdvice),
		ScarcityScore:   parseScarcity(r.ScarcityScore),
		VoiceScript:     strings.TrimSpace(r.VoiceScript),
	}
	if audience, err := enums.ParseTargetAudience(r.TargetAudience); err == nil {
		result.TargetAudience = audience
	}
	return result, nil
}

// parsePrice accepts numbers and numeric strings such as "150 000", "150,000 UZS" or "150.000 so'm".
// A dot survives only between two digits, and dots that split groups of three are thousands
// separators. Ranges like "100-200" are left at zero for the operator to fix during review.
// Negative prices are rejected.
func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		text = string(raw)
	}

	runes := []rune(text)
	isDigit := func(i int) bool { return i >= 0 && i < len(runes) && runes[i] >= '0' && runes[i] <= '9' }

	var b strings.Builder
	seenDigit := false
	for i, r := range runes {
		switch {
		case isDigit(i):
			seenDigit = true
			b.WriteRune(r)
		case r == '.' && isDigit(i-1) && isDigit(i+1):
			b.WriteRune(r)
		case r == '-' && !seenDigit:
			b.WriteRune(r)
		case r == '-':
			return decimal.Zero, nil
		}
	}

	number := b.String()
	if dotGroupedThousands.MatchString(number) {
		number = strings.ReplaceAll(number, ".", "")
	}
	if strings.Trim(number, "-") == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.Zero, nil
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", price)
	}
	return price, nil
}

func parseScarcity(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var text string
		if json.Unmarshal(raw, &text) != nil {
			return nil
		}
		if _, scanErr := fmt.Sscanf(strings.TrimSpace(text), "%g", &value); scanErr != nil {
			return nil
		}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	score := int(math.Round(value))
	score = max(minScarcity, min(maxScarcity, score))
	return &score
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
