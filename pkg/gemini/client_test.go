package gemini

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"google.golang.org/genai"

	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
)

const apiKeyHeader = "x-goog-api-key"

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("test-key", WithBaseURL("http://gemini.test/v1beta"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestWithBaseURLSplitsVersion(t *testing.T) {
	client := &Client{baseURL: defaultBaseURL, apiVersion: defaultAPIVersion}
	WithBaseURL("https://proxy.example/gemini/v1alpha/")(client)
	if client.baseURL != "https://proxy.example/gemini/" || client.apiVersion != "v1alpha" {
		t.Fatalf("unexpected split %q %q", client.baseURL, client.apiVersion)
	}

	client = &Client{baseURL: defaultBaseURL, apiVersion: defaultAPIVersion}
	WithBaseURL("https://proxy.example")(client)
	if client.baseURL != "https://proxy.example/" || client.apiVersion != defaultAPIVersion {
		t.Fatalf("unexpected host-only override %q %q", client.baseURL, client.apiVersion)
	}
}

func TestGenerateContentRequest(t *testing.T) {
	var capturedURL string
	var capturedHeaders http.Header
	var body string

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"title\":"},{"text":"\"Scarf\"}]"}]}}]}`), nil
	})

	resp, err := client.GenerateContent(context.Background(), "gemini-2.5-flash",
		UserTurn(InlinePart("image/jpeg", []byte{0xff, 0xd8}), TextPart("analyze")),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeObject}},
		})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(capturedURL, "http://gemini.test/v1beta/models/gemini-2.5-flash:generateContent") {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get(apiKeyHeader) != "test-key" {
		t.Fatal("api key header missing")
	}
	if strings.Contains(capturedURL, "test-key") {
		t.Fatal("api key leaked into URL")
	}

	var payload struct {
		Contents []struct {
			Parts []struct {
				InlineData *struct {
					MimeType string `json:"mimeType"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if len(payload.Contents) != 1 || payload.Contents[0].Parts[0].InlineData == nil || payload.Contents[0].Parts[0].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("unexpected payload %s", body)
	}
	if !strings.Contains(body, "application/json") || !strings.Contains(body, "ARRAY") {
		t.Fatalf("generation config not forwarded: %s", body)
	}
	if got := Text(resp); got != `[{"title":"Scarf"}]` {
		t.Fatalf("unexpected joined text %q", got)
	}
}

func TestGenerateContentMapsProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   pkgerrors.Code
		text   string
	}{
		{name: "quota", status: http.StatusTooManyRequests, body: `{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`, code: pkgerrors.CodeRateLimit, text: "quota exhausted"},
		{name: "server", status: http.StatusInternalServerError, body: `{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`, code: pkgerrors.CodeDependency, text: "backend unavailable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tc.status, tc.body), nil
			})

			_, err := client.GenerateContent(context.Background(), "m", UserTurn(TextPart("x")), nil)
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			if !strings.Contains(err.Error(), tc.text) {
				t.Fatalf("provider message lost: %v", err)
			}
		})
	}
}

func TestGenerateContentValidatesLocally(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request %s", req.URL)
		return nil, nil
	})
	if _, err := client.GenerateContent(context.Background(), " ", UserTurn(TextPart("x")), nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank model, got %v", err)
	}
	if _, err := client.GenerateContent(context.Background(), "m", nil, nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty contents, got %v", err)
	}
}

func TestResponseHelpers(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking", Thought: true},
			{Text: "here"},
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{0x89}}},
		}},
		GroundingMetadata: &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://a.uz", Title: "A"}},
			{Web: &genai.GroundingChunkWeb{}},
			{},
		}},
	}}}

	if got := Text(resp); got != "here" {
		t.Fatalf("unexpected text %q", got)
	}
	blob := InlineData(resp)
	if blob == nil || blob.MIMEType != "image/png" {
		t.Fatalf("expected inline data after text part, got %+v", blob)
	}
	sources := WebSources(resp)
	if len(sources) != 1 || sources[0].URI != "https://a.uz" {
		t.Fatalf("unexpected sources %+v", sources)
	}

	if Text(nil) != "" || InlineData(nil) != nil || WebSources(nil) != nil || GeneratedVideo(nil) != nil {
		t.Fatal("nil response helpers should be empty")
	}
}

func TestOperationFailure(t *testing.T) {
	if err := OperationFailure(&genai.GenerateVideosOperation{Done: true}); err != nil {
		t.Fatalf("unexpected failure %v", err)
	}
	err := OperationFailure(&genai.GenerateVideosOperation{Done: true, Error: map[string]any{"code": 3, "message": "prompt rejected"}})
	if err == nil || !strings.Contains(err.Error(), "prompt rejected") {
		t.Fatalf("expected provider message, got %v", err)
	}
}

func TestVideoOperationLifecycle(t *testing.T) {
	var mu sync.Mutex
	var requests []string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		requests = append(requests, req.Method+" "+req.URL.Path)
		mu.Unlock()
		if req.Header.Get(apiKeyHeader) != "test-key" {
			t.Fatalf("request %s missing api key", req.URL)
		}
		switch {
		case strings.HasSuffix(req.URL.Path, ":predictLongRunning"):
			body, _ := io.ReadAll(req.Body)
			if !strings.Contains(string(body), `"aspectRatio":"9:16"`) {
				t.Fatalf("aspect ratio not forwarded: %s", body)
			}
			if !strings.Contains(string(body), `"bytesBase64Encoded"`) {
				t.Fatalf("image not forwarded: %s", body)
			}
			return jsonResponse(http.StatusOK, `{"name":"models/veo/operations/op1"}`), nil
		case strings.HasSuffix(req.URL.Path, "/operations/op1"):
			return jsonResponse(http.StatusOK, `{"name":"models/veo/operations/op1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"http://gemini.test/v1beta/files/clip1:download?alt=media"}}]}}}`), nil
		case strings.Contains(req.URL.Path, "/files/"):
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("mp4-bytes")), Header: http.Header{"Content-Type": []string{"video/mp4"}}}, nil
		}
		t.Fatalf("unexpected request %s", req.URL)
		return nil, nil
	})

	ctx := context.Background()
	op, err := client.StartVideo(ctx, "veo", VideoRequest{
		Prompt:      "spin",
		Image:       &genai.Image{MIMEType: "image/jpeg", ImageBytes: []byte{0xff, 0xd8}},
		AspectRatio: "9:16",
	})
	if err != nil {
		t.Fatalf("start video: %v", err)
	}
	op, err = client.GetOperation(ctx, op)
	if err != nil {
		t.Fatalf("get operation: %v", err)
	}
	video := GeneratedVideo(op)
	if !op.Done || video == nil || video.URI == "" {
		t.Fatalf("unexpected operation %+v", op)
	}
	data, _, err := client.Download(ctx, video)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Fatalf("unexpected download %q", data)
	}
	if len(requests) != 3 {
		t.Fatalf("expected 3 requests, got %v", requests)
	}
}

func TestDownloadPrefersInlineBytes(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request %s", req.URL)
		return nil, nil
	})
	data, contentType, err := client.Download(context.Background(), &genai.Video{VideoBytes: []byte("inline"), MIMEType: "video/mp4"})
	if err != nil || string(data) != "inline" || contentType != "video/mp4" {
		t.Fatalf("unexpected inline download %q %q %v", data, contentType, err)
	}
	if _, _, err := client.Download(context.Background(), &genai.Video{}); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error for empty video, got %v", err)
	}
}

func TestWrapPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := WrapPCM(pcm, PCMRate("audio/L16;codec=pcm;rate=24000"))
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("unexpected header %q", wav[:44])
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 24000 {
		t.Fatalf("unexpected sample rate %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("unexpected data size %d", got)
	}
	if len(wav) != wavHeaderSizeBytes+len(pcm) {
		t.Fatalf("unexpected length %d", len(wav))
	}
	if !IsRawPCM("audio/L16;codec=pcm;rate=24000") || IsRawPCM("audio/mpeg") {
		t.Fatal("unexpected raw pcm detection")
	}
	if PCMRate("garbage;;") != defaultPCMRate {
		t.Fatal("expected default rate for unparsable mime type")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
