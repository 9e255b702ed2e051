package telegram

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const sentMessage = `{"ok":true,"result":{"message_id":7,"date":1700000000,"chat":{"id":-100123,"type":"channel"}}}`

func reply(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}
}

func readForm(t *testing.T, req *http.Request) (map[string]string, map[string][]byte) {
	t.Helper()
	_, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	reader := multipart.NewReader(req.Body, params["boundary"])
	fields := map[string]string{}
	files := map[string][]byte{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		if part.FileName() != "" {
			files[part.FormName()] = data
			continue
		}
		fields[part.FormName()] = string(data)
	}
	return fields, files
}

func TestSendPhotoUploadsBytes(t *testing.T) {
	var capturedURL string
	var fields map[string]string
	var files map[string][]byte

	client := NewClient(WithBaseURL("http://tg.test"), WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		fields, files = readForm(t, req)
		return reply(http.StatusOK, sentMessage), nil
	})}))

	err := client.SendMedia(context.Background(), SendMediaRequest{
		Token:     "123:abc",
		ChatID:    "@shop_bot",
		Caption:   "<b>Scarf</b>",
		ParseMode: ParseModeHTML,
		Kind:      enums.MediaKindPhoto,
		Media:     Media{Data: []byte("jpeg-bytes"), ContentType: "image/jpeg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://tg.test/bot123:abc/sendPhoto", capturedURL)
	assert.Contains(t, fields["chat_id"], "@shop_bot")
	assert.Contains(t, fields["parse_mode"], "HTML")
	assert.Equal(t, "<b>Scarf</b>", fields["caption"])
	assert.Equal(t, []byte("jpeg-bytes"), files["photo"])
}

func TestSendVideoPassesRemoteURL(t *testing.T) {
	var capturedURL string
	var fields map[string]string

	client := NewClient(WithBaseURL("http://tg.test"), WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		fields, _ = readForm(t, req)
		return reply(http.StatusOK, sentMessage), nil
	})}))

	err := client.SendMedia(context.Background(), SendMediaRequest{
		Token:   "42:video",
		ChatID:  "-100123",
		Caption: "clip",
		Kind:    enums.MediaKindVideo,
		Media:   Media{URL: "https://cdn.example/v.mp4"},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://tg.test/bot42:video/sendVideo", capturedURL)
	assert.Contains(t, fields["video"], "https://cdn.example/v.mp4")
}

func TestSendMediaReturnsAPIError(t *testing.T) {
	client := NewClient(WithBaseURL("http://tg.test"), WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return reply(http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`), nil
	})}))

	err := client.SendMedia(context.Background(), SendMediaRequest{
		Token: "42:abc", ChatID: "@x", Caption: "c", Kind: enums.MediaKindPhoto, Media: Media{URL: "https://a/b.jpg"},
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.ErrorCode)
	assert.Equal(t, "Bad Request: chat not found", apiErr.Description)
}

func TestSendMediaHidesTokenOnTransportFailure(t *testing.T) {
	const token = "123456:SECRET-BOT-TOKEN"
	client := NewClient(WithBaseURL("http://127.0.0.1:1"), WithTimeout(2*time.Second))

	err := client.SendMedia(context.Background(), SendMediaRequest{
		Token: token, ChatID: "@x", Caption: "c", Kind: enums.MediaKindPhoto, Media: Media{Data: []byte("jpeg")},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), err.Error())
	assert.NotContains(t, err.Error(), "SECRET-BOT-TOKEN")

	var urlErr *url.Error
	assert.False(t, errors.As(err, &urlErr))
}

func TestRedact(t *testing.T) {
	err := Redact(errors.New("Post http://tg/bot1:abc/sendPhoto: EOF"), "1:abc")
	assert.Equal(t, "Post http://tg/bot<redacted>/sendPhoto: EOF", err.Error())

	plain := errors.New("EOF")
	assert.Same(t, plain, Redact(plain, "1:abc"))
	assert.Nil(t, Redact(nil, "1:abc"))
}

func TestSendMediaValidatesBeforeNetwork(t *testing.T) {
	calls := 0
	client := NewClient(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return reply(http.StatusOK, sentMessage), nil
	})}))

	for _, req := range []SendMediaRequest{
		{ChatID: "@x", Kind: enums.MediaKindPhoto, Media: Media{URL: "u"}},
		{Token: "t", Kind: enums.MediaKindPhoto, Media: Media{URL: "u"}},
		{Token: "t", ChatID: "@x", Kind: "audio", Media: Media{URL: "u"}},
		{Token: "t", ChatID: "@x", Kind: enums.MediaKindPhoto},
	} {
		assert.Error(t, client.SendMedia(context.Background(), req))
	}
	assert.Zero(t, calls)
}
