package publishing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/bazary-backend/pkg/models"
)

const shareIntentURL = "https://t.me/share/url"

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the characters the Bot API's HTML parse mode treats as markup.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// NormalizeRecipient turns a channel link, handle or numeric chat id into the form the Bot API expects.
func NormalizeRecipient(raw string) string {
	id := strings.TrimSpace(raw)
	if _, after, found := strings.Cut(id, "t.me/"); found {
		handle, _, _ := strings.Cut(after, "/")
		handle, _, _ = strings.Cut(handle, "?")
		id = "@" + strings.TrimPrefix(handle, "@")
	}
	if id == "" || strings.HasPrefix(id, "@") || strings.HasPrefix(id, "-") {
		return id
	}
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return id
	}
	return "@" + id
}

// BuildCaption renders the channel post: bold title, description and a bold price line.
func BuildCaption(p models.Product) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(EscapeHTML(p.Title))
	b.WriteString("</b>\n\n")
	b.WriteString(EscapeHTML(p.Description))
	b.WriteString("\n\n💰 <b>")
	b.WriteString(models.FormatAmount(p.Price))
	b.WriteString(" ")
	b.WriteString(EscapeHTML(p.Currency))
	b.WriteString("</b>")
	return b.String()
}

// ShareLink builds the share-intent URL used when the shop has no bot token. Inline images cannot
// travel in a link, so the shop's public page is shared instead.
func ShareLink(p models.Product, shop models.Shop) string {
	target := p.ImageURL
	if !isRemote(target) {
		target = "https://t.me/" + strings.TrimPrefix(shop.Username, "@")
	}
	text := p.Title + "\n\n" + p.Description + "\n\nPrice: " + p.Price.String() + " " + p.Currency
	return shareIntentURL + "?url=" + url.QueryEscape(target) + "&text=" + url.QueryEscape(text)
}

func isRemote(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}
