package classifier

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// CleanText normalizes social and news text for classification: URLs and
// @mentions are removed, whitespace is collapsed, and the result is truncated
// to the model's input size.
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if runes := []rune(text); len(runes) > maxInputChars {
		text = string(runes[:maxInputChars])
	}
	return text
}
