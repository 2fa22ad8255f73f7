package domain

import (
	"strings"
	"unicode"
)

// ValidUserName reports whether name is non-blank, at most maxLen characters
// and made of letters, digits, spaces, underscores and hyphens only.
func ValidUserName(name string, maxLen int) bool {
	if strings.TrimSpace(name) == "" || len([]rune(name)) > maxLen {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// ValidMessage reports whether content is non-blank and at most maxLen characters.
func ValidMessage(content string, maxLen int) bool {
	return strings.TrimSpace(content) != "" && len([]rune(content)) <= maxLen
}

// Sanitize trims surrounding whitespace, mapping blank input to the empty string.
func Sanitize(input string) string {
	return strings.TrimSpace(input)
}
