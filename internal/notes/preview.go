package notes

import "unicode/utf8"

// PreviewLength is the number of characters kept in a note preview.
const PreviewLength = 100

// Preview returns the first PreviewLength characters of content.
// It counts runes, so multi-byte text is never cut mid-character.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	n := 0
	for i := range content {
		if n == PreviewLength {
			return content[:i]
		}
		n++
	}
	return content
}
