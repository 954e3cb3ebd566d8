// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package passkey

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePasskeyName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Laptop", "Laptop"},
		{"trimmed", "  YubiKey 5C  ", "YubiKey 5C"},
		{"inner whitespace kept", "Work  Laptop", "Work  Laptop"},
		{"punctuation", "Alice's Key (backup), v2.0_final-x", "Alice's Key (backup), v2.0_final-x"},
		{"unicode letters", "Schlüssel für Büro", "Schlüssel für Büro"},
		{"cjk", "仕事用キー", "仕事用キー"},
		{"digits", "Key 42", "Key 42"},
		{"max length", strings.Repeat("a", 255), strings.Repeat("a", 255)},
		{"max length after trim", " " + strings.Repeat("a", 255) + " ", strings.Repeat("a", 255)},
		{"max length multibyte", strings.Repeat("ü", 255), strings.Repeat("ü", 255)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParsePasskeyName(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, parsed.String())
		})
	}
}

func TestParsePasskeyNameRejected(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason NameReason
	}{
		{"empty", "", NameEmpty},
		{"spaces only", "   ", NameEmpty},
		{"tabs and newlines", "\t\n ", NameEmpty},
		{"too long", strings.Repeat("a", 256), NameTooLong},
		{"too long multibyte", strings.Repeat("ü", 256), NameTooLong},
		{"exclamation", "Laptop!", NameInvalidCharacters},
		{"at sign", "key@home", NameInvalidCharacters},
		{"slash", "a/b", NameInvalidCharacters},
		{"emoji", "Key 🔑", NameInvalidCharacters},
		{"control character", "Lap\x00top", NameInvalidCharacters},
		{"inner newline", "Lap\ntop", NameInvalidCharacters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePasskeyName(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidName)

			var nameErr *NameError
			require.ErrorAs(t, err, &nameErr)
			assert.Equal(t, tt.reason, nameErr.Reason)
			if tt.reason == NameTooLong {
				assert.Equal(t, MaxNameLength, nameErr.Max)
			}
		})
	}
}

func TestPasskeyNameEqual(t *testing.T) {
	a, err := ParsePasskeyName("Laptop")
	require.NoError(t, err)
	b, err := ParsePasskeyName("  Laptop ")
	require.NoError(t, err)
	c, err := ParsePasskeyName("laptop")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	// Comparison is exact, not case-folded
	assert.False(t, a.Equal(c))
}

func TestPasskeyNameJSON(t *testing.T) {
	name, err := ParsePasskeyName("Work Laptop")
	require.NoError(t, err)

	data, err := json.Marshal(name)
	require.NoError(t, err)
	assert.Equal(t, `"Work Laptop"`, string(data))

	var decoded PasskeyName
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, name.Equal(decoded))

	// Stored garbage does not survive decoding
	err = json.Unmarshal([]byte(`"bad!name"`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidName)
}
