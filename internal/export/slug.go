package export

import (
	"strings"
	"unicode"
)

const maxSlugLength = 60

// Slug lowercases s and collapses every run of characters outside
// [a-z0-9] into a single hyphen. Empty results become "untitled".
func Slug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			if b.Len() >= maxSlugLength {
				break
			}
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return strings.TrimRight(b.String(), "-")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
