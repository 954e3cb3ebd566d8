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
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// CeremonyKind identifies which of the two WebAuthn ceremonies a challenge
// belongs to. At most one live challenge exists per (user, kind) pair.
type CeremonyKind string

const (
	CeremonyRegistration   CeremonyKind = "registration"
	CeremonyAuthentication CeremonyKind = "authentication"
)

// UserID identifies a relying-party user. It is opaque to this package;
// callers map their own user model to a UserID at the boundary.
type UserID string

// ParseUserID validates a raw user identifier. The value must be non-empty
// and must not carry leading or trailing whitespace.
func ParseUserID(raw string) (UserID, error) {
	if raw == "" || strings.TrimSpace(raw) != raw {
		return "", ErrInvalidUserID
	}
	return UserID(raw), nil
}

// Bytes returns the user ID as a WebAuthn user handle.
func (u UserID) Bytes() []byte {
	return []byte(u)
}

func (u UserID) String() string {
	return string(u)
}

// PasskeyID is the credential identifier assigned by the authenticator at
// registration time. Identity is byte identity; the canonical text encoding
// is unpadded base64url.
type PasskeyID []byte

// ParsePasskeyID decodes the canonical base64url text encoding.
func ParsePasskeyID(encoded string) (PasskeyID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		return nil, ErrInvalidPasskeyID
	}
	return PasskeyID(raw), nil
}

// String returns the canonical base64url encoding.
func (id PasskeyID) String() string {
	return base64.RawURLEncoding.EncodeToString(id)
}

// Equal reports whether two credential IDs are byte-identical.
func (id PasskeyID) Equal(other PasskeyID) bool {
	return bytes.Equal(id, other)
}

// MarshalJSON encodes the ID as a base64url string.
func (id PasskeyID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes the ID from a base64url string.
func (id *PasskeyID) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	decoded, err := ParsePasskeyID(encoded)
	if err != nil {
		return err
	}
	*id = decoded
	return nil
}

// Passkey is a registered credential owned by exactly one user. It is
// created atomically when registration verification succeeds; LastUsedAt
// and the sign counter are touched only by successful authentication.
type Passkey struct {
	// ID is the credential identifier assigned by the authenticator.
	ID PasskeyID `json:"id"`

	// Name is the validated display label chosen at registration.
	Name PasskeyName `json:"name"`

	// Credential is the opaque credential material produced by the
	// verification engine (public key, attestation metadata, flags,
	// sign counter, clone warning).
	Credential webauthn.Credential `json:"credential"`

	// CreatedAt is when the credential was registered.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is when the credential last completed authentication.
	// Nil until the first successful login.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// SignCount returns the authenticator's signature counter as last verified.
func (p *Passkey) SignCount() uint32 {
	return p.Credential.Authenticator.SignCount
}

// CloneWarning reports whether the engine flagged a sign-count regression
// on the most recent authentication.
func (p *Passkey) CloneWarning() bool {
	return p.Credential.Authenticator.CloneWarning
}

// recordAuthentication applies the engine's post-verification credential
// state (updated sign counter and clone warning) and stamps LastUsedAt.
func (p *Passkey) recordAuthentication(updated webauthn.Credential, now time.Time) {
	p.Credential = updated
	p.LastUsedAt = &now
}

// clone returns a deep-enough copy for handing out of a store. Credential
// byte slices are shared; callers treat credential material as read-only.
func (p *Passkey) clone() *Passkey {
	dup := *p
	if p.LastUsedAt != nil {
		ts := *p.LastUsedAt
		dup.LastUsedAt = &ts
	}
	return &dup
}

// Challenge is a one-time random value the authenticator must sign over.
// It is bound to exactly one (user, ceremony kind) pair and superseded by
// any later challenge issued for the same pair.
type Challenge struct {
	UserID    UserID       `json:"user_id"`
	Kind      CeremonyKind `json:"kind"`
	Value     []byte       `json:"value"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Expired reports whether the challenge is past its deadline at now.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
