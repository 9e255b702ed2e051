package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims input to a single line for search filters and prompts. Control and
// formatting characters are dropped, runs of whitespace collapse to one space, and the result is
// cut to maxLen runes so Cyrillic and Uzbek text never splits mid-character. A maxLen of zero or
// less disables the cap.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))
	pendingSpace := false
	runes := 0
	for _, r := range input {
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		if pendingSpace {
			if maxLen > 0 && runes+1 >= maxLen {
				break
			}
			b.WriteByte(' ')
			runes++
			pendingSpace = false
		}
		if maxLen > 0 && runes >= maxLen {
			break
		}
		b.WriteRune(r)
		runes++
	}
	return b.String()
}
