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
	"fmt"
	"strings"
	"unicode"
)

// MaxNameLength is the maximum length of a passkey display label in runes.
const MaxNameLength = 255

// NameReason identifies why a passkey name was rejected.
type NameReason string

const (
	NameEmpty             NameReason = "empty"
	NameTooLong           NameReason = "too_long"
	NameInvalidCharacters NameReason = "invalid_characters"
)

// NameError reports a rejected passkey name. It matches ErrInvalidName
// under errors.Is so callers can classify without inspecting the reason.
type NameError struct {
	Reason NameReason
	Max    int // populated for NameTooLong
}

func (e *NameError) Error() string {
	switch e.Reason {
	case NameEmpty:
		return "passkey name is empty"
	case NameTooLong:
		return fmt.Sprintf("passkey name exceeds %d characters", e.Max)
	case NameInvalidCharacters:
		return "passkey name contains invalid characters"
	default:
		return "invalid passkey name"
	}
}

// Is matches the ErrInvalidName sentinel.
func (e *NameError) Is(target error) bool {
	return target == ErrInvalidName
}

// PasskeyName is a validated, trimmed display label for a credential. The
// zero value is invalid; the only constructor path is ParsePasskeyName.
type PasskeyName struct {
	value string
}

// ParsePasskeyName validates and sanitizes a raw display label. The input
// is trimmed, then either accepted whole or rejected: empty after trim,
// longer than MaxNameLength runes, or containing any rune outside Unicode
// letters, digits, space and the punctuation set - _ . , ' ( ).
func ParsePasskeyName(raw string) (PasskeyName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PasskeyName{}, &NameError{Reason: NameEmpty}
	}
	if len([]rune(trimmed)) > MaxNameLength {
		return PasskeyName{}, &NameError{Reason: NameTooLong, Max: MaxNameLength}
	}
	for _, r := range trimmed {
		if !allowedNameRune(r) {
			return PasskeyName{}, &NameError{Reason: NameInvalidCharacters}
		}
	}
	return PasskeyName{value: trimmed}, nil
}

func allowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
		return true
	}
	switch r {
	case '-', '_', '.', ',', '\'', '(', ')':
		return true
	}
	return false
}

// String returns the sanitized label.
func (n PasskeyName) String() string {
	return n.value
}

// Equal reports whether two validated names are identical.
func (n PasskeyName) Equal(other PasskeyName) bool {
	return n.value == other.value
}

// MarshalJSON encodes the name as a plain string.
func (n PasskeyName) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.value)
}

// UnmarshalJSON decodes and re-validates a stored name.
func (n *PasskeyName) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePasskeyName(raw)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
