package generative

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/angelmondragon/bazary-backend/internal/messages"
	"github.com/angelmondragon/bazary-backend/pkg/dataurl"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/gemini"
)

const sourceTitleFallback = "Source"

// EnhanceInput asks for a studio-style variant of a product photo.
type EnhanceInput struct {
	Image          Image
	Title          string
	Category       enums.ProductCategory
	TargetAudience enums.TargetAudience
	AspectRatio    enums.AspectRatio
}

// Source is one web page the research answer was grounded on.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ResearchResult is the grounded answer. Failures are reported in Text with no sources.
type ResearchResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Enhance returns a data reference for the generated image, or "" when the provider fails.
func (g *gateway) Enhance(ctx context.Context, input EnhanceInput) (string, error) {
	if err := g.ready(); err != nil {
		return "", err
	}
	if len(input.Image.Data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	ratio := input.AspectRatio
	if !ratio.IsValid() {
		ratio = enums.AspectRatioSquare
	}
	mimeType := input.Image.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := gemini.UserTurn(
		gemini.InlinePart(mimeType, input.Image.Data),
		gemini.TextPart(enhancePrompt(input, ratio)),
	)

	var blob *genai.Blob
	err := g.observe(opEnhance, func() error {
		resp, callErr := g.client.GenerateContent(ctx, g.cfg.ImageModel, contents, &genai.GenerateContentConfig{
			ResponseModalities: []string{gemini.ModalityText, gemini.ModalityImage},
		})
		if callErr != nil {
			return callErr
		}
		if blob = gemini.InlineData(resp); blob == nil {
			return fmt.Errorf("enhance response carried no image")
		}
		return nil
	})
	if err != nil {
		g.bestEffort(ctx, opEnhance, err)
		return "", nil
	}
	outType := blob.MIMEType
	if outType == "" {
		outType = "image/png"
	}
	return dataurl.Encode(outType, blob.Data), nil
}

func enhancePrompt(input EnhanceInput, ratio enums.AspectRatio) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Commercial product shot for %q. Aesthetic Blue Ocean style: clean, minimalist, high-end lifestyle background, soft azure lighting. Aspect ratio: %s.", strings.TrimSpace(input.Title), ratio)
	if input.Category != "" {
		fmt.Fprintf(&b, " Category: %s.", input.Category)
	}
	if input.TargetAudience != "" {
		fmt.Fprintf(&b, " Target audience: %s.", input.TargetAudience)
	}
	return b.String()
}

// Voice returns a WAV data reference for text, or "" for blank text and provider failures.
func (g *gateway) Voice(ctx context.Context, text string) (string, error) {
	if err := g.ready(); err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{gemini.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{VoiceConfig: &genai.VoiceConfig{
			PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.cfg.TTSVoice},
		}},
	}

	var audio string
	err := g.observe(opVoice, func() error {
		resp, callErr := g.client.GenerateContent(ctx, g.cfg.TTSModel, gemini.UserTurn(gemini.TextPart("Say: "+text)), cfg)
		if callErr != nil {
			return callErr
		}
		blob := gemini.InlineData(resp)
		if blob == nil {
			return fmt.Errorf("voice response carried no audio")
		}
		if !gemini.IsRawPCM(blob.MIMEType) {
			audio = dataurl.Encode(blob.MIMEType, blob.Data)
			return nil
		}
		audio = dataurl.Encode("audio/wav", gemini.WrapPCM(blob.Data, gemini.PCMRate(blob.MIMEType)))
		return nil
	})
	if err != nil {
		g.bestEffort(ctx, opVoice, err)
		return "", nil
	}
	return audio, nil
}

// Research runs a search-grounded query. Provider failures come back as localized text.
func (g *gateway) Research(ctx context.Context, query string, lang enums.Language) (ResearchResult, error) {
	if err := g.ready(); err != nil {
		return ResearchResult{}, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return ResearchResult{}, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}
	if !lang.IsValid() {
		lang = enums.DefaultLanguage
	}

	contents := gemini.UserTurn(gemini.TextPart(fmt.Sprintf("Perform in-depth market research and competitive analysis on: %s. Respond in %s.", query, lang.PromptName())))
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	var resp *genai.GenerateContentResponse
	err := g.observe(opResearch, func() error {
		var callErr error
		resp, callErr = g.client.GenerateContent(ctx, g.cfg.ResearchModel, contents, cfg)
		return callErr
	})
	if err != nil {
		g.bestEffort(ctx, opResearch, err)
		return ResearchResult{Text: messages.Text(lang, messages.ResearchFailed), Sources: []Source{}}, nil
	}

	sources := []Source{}
	for _, web := range gemini.WebSources(resp) {
		title := strings.TrimSpace(web.Title)
		if title == "" {
			title = sourceTitleFallback
		}
		sources = append(sources, Source{URI: web.URI, Title: title})
	}
	return ResearchResult{Text: gemini.Text(resp), Sources: sources}, nil
}
