package gemini

import (
	"strings"

	"google.golang.org/genai"
)

const (
	RoleUser      = "user"
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
	ModalityAudio = "AUDIO"
)

// TextPart and InlinePart build the two part shapes the console sends.
func TextPart(text string) *genai.Part {
	return &genai.Part{Text: text}
}

func InlinePart(mimeType string, data []byte) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// UserTurn wraps parts into the single user turn every console prompt uses.
func UserTurn(parts ...*genai.Part) []*genai.Content {
	return []*genai.Content{{Role: RoleUser, Parts: parts}}
}

func firstContent(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	return resp.Candidates[0].Content
}

// Text joins the text parts of the first candidate.
func Text(resp *genai.GenerateContentResponse) string {
	content := firstContent(resp)
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// InlineData returns the first inline payload of the first candidate; it may follow text parts.
func InlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	content := firstContent(resp)
	if content == nil {
		return nil
	}
	for _, part := range content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}

// WebSource is one page a grounded answer cites.
type WebSource struct {
	URI   string
	Title string
}

// WebSources lists the grounding sources of the first candidate.
func WebSources(resp *genai.GenerateContentResponse) []WebSource {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []WebSource
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		out = append(out, WebSource{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}

// VideoRequest describes a text-and-image-to-video job.
type VideoRequest struct {
	Prompt      string
	Image       *genai.Image
	AspectRatio string
}

// GeneratedVideo returns the first video of a finished operation.
func GeneratedVideo(op *genai.GenerateVideosOperation) *genai.Video {
	if op == nil || op.Response == nil {
		return nil
	}
	for _, generated := range op.Response.GeneratedVideos {
		if generated != nil && generated.Video != nil {
			return generated.Video
		}
	}
	return nil
}
