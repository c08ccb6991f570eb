package thread

import "strings"

// MakeTitle trims the text and keeps the first MaxTitleLength runes.
func MakeTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultTitle
	}

	runes := []rune(text)
	if len(runes) > MaxTitleLength {
		runes = runes[:MaxTitleLength]
	}

	return string(runes)
}
