package publishing

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/bazary-backend/internal/appstate"
	"github.com/angelmondragon/bazary-backend/internal/kvstore"
	"github.com/angelmondragon/bazary-backend/pkg/dataurl"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
	"github.com/angelmondragon/bazary-backend/pkg/models"
	"github.com/angelmondragon/bazary-backend/pkg/telegram"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	requests []telegram.SendMediaRequest
	err      error
}

func (r *recordingSender) SendMedia(_ context.Context, req telegram.SendMediaRequest) error {
	r.requests = append(r.requests, req)
	return r.err
}

func TestNormalizeRecipient(t *testing.T) {
	cases := map[string]string{
		"t.me/shop_bot":            "@shop_bot",
		"https://t.me/shop_bot/12": "@shop_bot",
		"@shop_bot":                "@shop_bot",
		"shop_bot":                 "@shop_bot",
		" shop_bot ":               "@shop_bot",
		"-1001234567890":           "-1001234567890",
		"123456789":                "123456789",
		"":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeRecipient(in), in)
	}
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "Buy &lt;now&gt; &amp; save", EscapeHTML("Buy <now> & save"))
}

func TestBuildCaption(t *testing.T) {
	caption := BuildCaption(models.Product{
		Title:       "Scarf <silk>",
		Description: "Soft & warm",
		Price:       decimal.NewFromInt(150000),
		Currency:    "UZS",
	})
	assert.Equal(t, "<b>Scarf &lt;silk&gt;</b>\n\nSoft &amp; warm\n\n💰 <b>150,000 UZS</b>", caption)
}

func TestResolveMedia(t *testing.T) {
	media, err := ResolveMedia(dataurl.Encode("image/jpeg", []byte{0xff, 0xd8}), enums.MediaKindPhoto)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, media.Data)
	assert.Equal(t, "photo.jpg", media.FileName)
	assert.Equal(t, "image/jpeg", media.ContentType)

	media, err = ResolveMedia("https://cdn.example/p.jpg", enums.MediaKindPhoto)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/p.jpg", media.URL)

	media, err = ResolveMedia(dataurl.Encode("video/mp4", []byte("mp4")), enums.MediaKindVideo)
	require.NoError(t, err)
	assert.Equal(t, "video.mp4", media.FileName)

	for _, ref := range []string{"", "blob:http://localhost/123", "ftp://x"} {
		_, err := ResolveMedia(ref, enums.MediaKindPhoto)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), ref)
	}
}

func newService(t *testing.T, sender sender) (Service, *appstate.Service) {
	t.Helper()
	state := appstate.New(kvstore.NewMemoryStore(), nil)
	svc, err := NewService(sender, state, nil, nil)
	require.NoError(t, err)
	return svc, state
}

func TestSendValidatesBeforeNetwork(t *testing.T) {
	sender := &recordingSender{}
	svc, _ := newService(t, sender)
	base := SendInput{Token: "1:abc", Recipient: "@shop", Caption: "hi", MediaRef: "https://cdn.example/p.jpg"}

	for name, mutate := range map[string]func(*SendInput){
		"token":   func(in *SendInput) { in.Token = " " },
		"chat":    func(in *SendInput) { in.Recipient = "" },
		"caption": func(in *SendInput) { in.Caption = "" },
		"media":   func(in *SendInput) { in.MediaRef = "" },
	} {
		input := base
		mutate(&input)
		result := svc.Send(context.Background(), input)
		assert.False(t, result.Success, name)
		assert.NotEmpty(t, result.Error, name)
	}
	assert.Empty(t, sender.requests)
}

func TestSendIsNotDeduplicated(t *testing.T) {
	sender := &recordingSender{}
	svc, _ := newService(t, sender)
	input := SendInput{Token: "1:abc", Recipient: "t.me/shop_bot", Caption: EscapeHTML("Buy <now> & save"), MediaRef: "https://cdn.example/p.jpg"}

	assert.True(t, svc.Send(context.Background(), input).Success)
	assert.True(t, svc.Send(context.Background(), input).Success)
	require.Len(t, sender.requests, 2)
	assert.Equal(t, sender.requests[0], sender.requests[1])
	assert.Equal(t, "@shop_bot", sender.requests[0].ChatID)
	assert.Equal(t, "Buy &lt;now&gt; &amp; save", sender.requests[0].Caption)
	assert.Equal(t, telegram.ParseModeHTML, sender.requests[0].ParseMode)
}

func TestSendMapsProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		lang enums.Language
		want string
	}{
		{name: "admin rights", err: &telegram.APIError{StatusCode: 400, Description: "Bad Request: not enough admin rights to post"}, want: "У бота нет прав для публикации. Сделайте его администратором."},
		{name: "chat not found", err: &telegram.APIError{StatusCode: 400, Description: "Bad Request: chat not found"}, lang: enums.LanguageUzbek, want: "Kanal topilmadi. Bot kanal administratorlariga qo'shilganini va ID to'g'ri kiritilganini tekshiring."},
		{name: "passthrough", err: &telegram.APIError{StatusCode: 400, Description: "Bad Request: wrong file identifier"}, want: "Bad Request: wrong file identifier"},
		{name: "empty description", err: &telegram.APIError{StatusCode: 502}, want: "Unknown API Error"},
		{name: "network", err: errors.New("dial tcp: connection refused"), want: "dial tcp: connection refused"},
		{name: "transport", err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("connection reset"), "telegram request failed"), want: "Network Error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newService(t, &recordingSender{err: tc.err})
			result := svc.Send(context.Background(), SendInput{
				Token: "1:abc", Recipient: "@shop", Caption: "hi", MediaRef: "https://cdn.example/p.jpg", Language: tc.lang,
			})
			assert.False(t, result.Success)
			assert.Equal(t, tc.want, result.Error)
		})
	}
}

func seedProduct(t *testing.T, state *appstate.Service, p models.Product) {
	t.Helper()
	require.NoError(t, state.AddProducts(context.Background(), []models.Product{p}))
}

func testProduct() models.Product {
	return models.Product{
		ID:          "p1",
		Title:       "Scarf",
		Description: "Silk",
		Price:       decimal.NewFromInt(150000),
		Currency:    "UZS",
		Category:    enums.ProductCategoryAccessories,
		ImageURL:    dataurl.Encode("image/jpeg", []byte{0xff, 0xd8}),
		Status:      enums.ProductStatusPublished,
		Variants:    []models.Variant{},
		PublishedTo: &models.PublishedTo{Instagram: true},
	}
}

func TestPublishWithoutTokenReturnsShareLink(t *testing.T) {
	sender := &recordingSender{}
	svc, state := newService(t, sender)
	seedProduct(t, state, testProduct())

	result, err := svc.PublishProduct(context.Background(), "p1", Targets{Channel: true})
	require.NoError(t, err)
	assert.True(t, result.Manual)
	assert.Empty(t, sender.requests)

	parsed, err := url.Parse(result.ShareURL)
	require.NoError(t, err)
	assert.Equal(t, "t.me", parsed.Host)
	assert.Equal(t, "/share/url", parsed.Path)
	assert.Equal(t, "https://t.me/shop_bot", parsed.Query().Get("url"))
	assert.True(t, strings.HasPrefix(parsed.Query().Get("text"), "Scarf\n\nSilk"))

	stored, _ := state.Product("p1")
	require.NotNil(t, stored.PublishedTo)
	assert.True(t, stored.PublishedTo.TelegramChannel)
	assert.False(t, stored.PublishedTo.TelegramBot)
	assert.False(t, stored.PublishedTo.Instagram)
}

func TestPublishWithTokenSendsVideoWhenPresent(t *testing.T) {
	sender := &recordingSender{}
	svc, state := newService(t, sender)
	require.NoError(t, state.SetShop(context.Background(), models.Shop{Name: "Shop", Username: "shop", TelegramToken: "1:abc", TelegramChannelID: "t.me/my_channel"}))
	product := testProduct()
	product.VideoURL = dataurl.Encode("video/mp4", []byte("mp4"))
	seedProduct(t, state, product)

	result, err := svc.PublishProduct(context.Background(), "p1", Targets{Channel: true})
	require.NoError(t, err)
	assert.True(t, result.Result.Success)
	require.Len(t, sender.requests, 1)
	assert.Equal(t, enums.MediaKindVideo, sender.requests[0].Kind)
	assert.Equal(t, "@my_channel", sender.requests[0].ChatID)
	assert.True(t, result.Product.PublishedTo.TelegramChannel)
	assert.True(t, result.Product.PublishedTo.Instagram)
}

func TestPublishFailureLeavesFlagsUntouched(t *testing.T) {
	sender := &recordingSender{err: &telegram.APIError{StatusCode: 403, Description: "Forbidden: bot is not a member of the channel chat"}}
	svc, state := newService(t, sender)
	require.NoError(t, state.SetShop(context.Background(), models.Shop{Name: "Shop", TelegramToken: "1:abc", TelegramChannelID: "-100123"}))
	seedProduct(t, state, testProduct())

	result, err := svc.PublishProduct(context.Background(), "p1", Targets{Channel: true})
	require.NoError(t, err)
	assert.False(t, result.Result.Success)
	assert.Equal(t, "Forbidden: bot is not a member of the channel chat", result.Result.Error)

	stored, _ := state.Product("p1")
	assert.False(t, stored.PublishedTo.TelegramChannel)
}

func TestPublishValidation(t *testing.T) {
	svc, _ := newService(t, &recordingSender{})
	_, err := svc.PublishProduct(context.Background(), "p1", Targets{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.PublishProduct(context.Background(), "missing", Targets{Bot: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSendNeverExposesBotToken(t *testing.T) {
	const token = "123456:SECRET-BOT-TOKEN"
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})
	state := appstate.New(kvstore.NewMemoryStore(), nil)
	client := telegram.NewClient(telegram.WithBaseURL("http://127.0.0.1:1"), telegram.WithTimeout(2*time.Second))
	svc, err := NewService(client, state, logg, nil)
	require.NoError(t, err)

	result := svc.Send(context.Background(), SendInput{
		Token:     token,
		Recipient: "@shop",
		Caption:   "hi",
		MediaRef:  dataurl.Encode("image/jpeg", []byte{0xff, 0xd8}),
	})

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.NotContains(t, result.Error, "SECRET-BOT-TOKEN")
	assert.Contains(t, logs.String(), "publishing.send_failed")
	assert.NotContains(t, logs.String(), "SECRET-BOT-TOKEN")
}

func TestSendRedactsTokenEchoedByProvider(t *testing.T) {
	const token = "123456:SECRET-BOT-TOKEN"
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})
	state := appstate.New(kvstore.NewMemoryStore(), nil)
	sender := &recordingSender{err: errors.New("Post https://api.telegram.org/bot" + token + "/sendPhoto: EOF")}
	svc, err := NewService(sender, state, logg, nil)
	require.NoError(t, err)

	result := svc.Send(context.Background(), SendInput{Token: token, Recipient: "@shop", Caption: "hi", MediaRef: "https://cdn.example/p.jpg"})

	assert.False(t, result.Success)
	assert.NotContains(t, result.Error, "SECRET-BOT-TOKEN")
	assert.Contains(t, result.Error, "<redacted>")
	assert.NotContains(t, logs.String(), "SECRET-BOT-TOKEN")
}
