package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/bazary-backend/internal/generative"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	generative.Gateway
	enhanced generative.EnhanceInput
	ref      string
}

func (f *fakeGateway) Configured() bool { return true }

func (f *fakeGateway) Enhance(_ context.Context, input generative.EnhanceInput) (string, error) {
	f.enhanced = input
	return f.ref, nil
}

const tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func TestAIEnhanceImage(t *testing.T) {
	gateway := &fakeGateway{ref: "data:image/png;base64,AAAA"}
	handler := AIEnhanceImage(gateway, nil)

	body := `{"base64Image":"` + tinyPNG + `","title":"Scarf","category":"accessories","aspectRatio":"9:16"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":{"imageBase64":"data:image/png;base64,AAAA"}}`, rec.Body.String())
	assert.Equal(t, "image/png", gateway.enhanced.Image.MimeType)
	assert.Equal(t, enums.ProductCategoryAccessories, gateway.enhanced.Category)
	assert.Equal(t, enums.AspectRatioPortrait, gateway.enhanced.AspectRatio)
}

func TestAIEnhanceImageNullResults(t *testing.T) {
	gateway := &fakeGateway{}
	handler := AIEnhanceImage(gateway, nil)

	for _, body := range []string{`{"base64Image":""}`, `{"base64Image":"` + tinyPNG + `"}`} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"imageBase64":null}}`, rec.Body.String())
	}
}

func TestDecodeImage(t *testing.T) {
	img, err := decodeImage(tinyPNG)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)

	_, err = decodeImage("")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = decodeImage("aGVsbG8gd29ybGQ=")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnsupportedMedia))

	_, err = parseAspectRatio("4:3")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
