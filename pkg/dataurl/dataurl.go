// Package dataurl converts between RFC 2397 data references and raw bytes.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const scheme = "data:"

var ErrNotDataURL = errors.New("dataurl: value is not a data reference")

// IsDataURL reports whether value carries an inline data reference.
func IsDataURL(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), scheme)
}

// Decode parses a data reference and returns its media type and payload. A missing media type
// is sniffed from the payload.
func Decode(value string) (string, []byte, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, scheme) {
		return "", nil, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(value[len(scheme):], ",")
	if !ok {
		return "", nil, fmt.Errorf("dataurl: missing payload separator")
	}

	params := strings.Split(header, ";")
	mediaType := strings.TrimSpace(params[0])
	isBase64 := false
	for _, param := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(param), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := DecodeBase64(payload)
		if err != nil {
			return "", nil, err
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("dataurl: unescape payload: %w", err)
		}
		data = []byte(unescaped)
	}

	if mediaType == "" {
		mediaType = mimetype.Detect(data).String()
	}
	return mediaType, data, nil
}

// Encode builds a base64 data reference.
func Encode(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = mimetype.Detect(data).String()
	}
	return scheme + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Payload strips an optional data-reference header and returns the bare base64 text.
func Payload(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, scheme) {
		if _, payload, ok := strings.Cut(value, ","); ok {
			return payload
		}
	}
	return value
}

// DecodeBase64 accepts padded, unpadded and URL-safe encodings.
func DecodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if data, err := enc.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("dataurl: payload is not valid base64")
}

// DecodeImage accepts either a data reference or bare base64 and returns the sniffed type and bytes.
func DecodeImage(value string) (string, []byte, error) {
	if IsDataURL(value) {
		return Decode(value)
	}
	data, err := DecodeBase64(value)
	if err != nil {
		return "", nil, err
	}
	return mimetype.Detect(data).String(), data, nil
}
