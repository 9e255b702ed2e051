package validators

import (
	"net/http"
)

const (
	maxQueryLen = 200
	// MaxPromptLen caps free text forwarded to the generative provider.
	MaxPromptLen = 500
)

// QueryString returns a single-line, length-capped query parameter.
func QueryString(r *http.Request, key string) string {
	return SanitizeString(r.URL.Query().Get(key), maxQueryLen)
}
