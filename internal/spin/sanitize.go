package spin

import "html"

// maxTextLen caps artist and song display text.
const maxTextLen = 100

// SanitizeText HTML-escapes display text and truncates it to 100 characters.
// Escaping happens first so markup in the raw text can never survive intact.
func SanitizeText(s string) string {
	escaped := html.EscapeString(s)
	runes := []rune(escaped)
	if len(runes) <= maxTextLen {
		return escaped
	}
	return string(runes[:maxTextLen])
}
