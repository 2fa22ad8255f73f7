package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidUserName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "alice", true},
		{"with digits", "alice42", true},
		{"with space underscore hyphen", "A lice_b-c", true},
		{"unicode letters", "Zoë", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"at limit", strings.Repeat("a", MaxUsernameLength), true},
		{"over limit", strings.Repeat("a", MaxUsernameLength+1), false},
		{"punctuation", "alice!", false},
		{"at sign", "alice@home", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.valid, ValidUserName(tc.input, MaxUsernameLength))
		})
	}
}

func TestValidMessage(t *testing.T) {
	req := require.New(t)

	req.True(ValidMessage("hello", MaxMessageLength))
	req.True(ValidMessage("  padded  ", MaxMessageLength))
	req.True(ValidMessage(strings.Repeat("x", MaxMessageLength), MaxMessageLength))

	req.False(ValidMessage("", MaxMessageLength))
	req.False(ValidMessage(" \t\n ", MaxMessageLength))
	req.False(ValidMessage(strings.Repeat("x", MaxMessageLength+1), MaxMessageLength))
}

func TestSanitize(t *testing.T) {
	req := require.New(t)

	req.Equal("hello", Sanitize("  hello  "))
	req.Equal("", Sanitize("   "))
	req.Equal("", Sanitize(""))
}
