package telegram

import (
	"strings"
	"unicode/utf8"
)

const maxMessageLength = 4096

// splitMessage cuts text into chunks of at most limit runes, which is how
// Telegram counts message length. A cut prefers the last blank line, then the
// last newline, inside the window and falls back to a hard rune boundary.
func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLength
	}
	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		window := text[:byteOffsetOfRune(text, limit)]
		cut := len(window)
		if i := strings.LastIndex(window, "\n\n"); i > 0 {
			cut = i + 2
		} else if i := strings.LastIndexByte(window, '\n'); i > 0 {
			cut = i + 1
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func byteOffsetOfRune(s string, n int) int {
	for i := range s {
		if n == 0 {
			return i
		}
		n--
	}
	return len(s)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
