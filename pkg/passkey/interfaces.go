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
	"context"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ChallengeStore persists the one outstanding challenge per (user, ceremony
// kind) pair between the two phases of a ceremony. Challenges are
// short-lived; implementations may reap expired entries, but the Service
// always re-validates expiry itself and never trusts the store to
// pre-filter.
type ChallengeStore interface {
	// Insert stores a challenge, atomically replacing any existing
	// challenge for the same (user, kind) pair.
	Insert(ctx context.Context, challenge Challenge) error

	// Load retrieves the challenge for a (user, kind) pair.
	// Returns ErrChallengeNotFound if none exists.
	Load(ctx context.Context, userID UserID, kind CeremonyKind) (*Challenge, error)

	// Delete removes the challenge for a (user, kind) pair. Deleting an
	// absent challenge is not an error.
	Delete(ctx context.Context, userID UserID, kind CeremonyKind) error
}

// CredentialStore persists registered passkeys, keyed by (user, credential
// ID). Upsert must be atomic per key; the Service relies on that atomicity
// when two authentications race on the same credential.
type CredentialStore interface {
	// Get retrieves a passkey owned by the given user.
	// Returns ErrPasskeyNotFound if absent or owned by someone else.
	Get(ctx context.Context, userID UserID, id PasskeyID) (*Passkey, error)

	// List retrieves all passkeys owned by a user.
	// Returns an empty slice if the user has none.
	List(ctx context.Context, userID UserID) ([]*Passkey, error)

	// Upsert inserts the passkey if its ID is unseen for this user,
	// otherwise replaces it.
	Upsert(ctx context.Context, userID UserID, passkey *Passkey) error

	// Delete removes a passkey by its ID.
	// Returns ErrPasskeyNotFound if the passkey does not exist.
	Delete(ctx context.Context, userID UserID, id PasskeyID) error
}

// VerifyRegistrationParams carries everything the engine needs to validate
// an attestation response.
type VerifyRegistrationParams struct {
	// UserHandle is the WebAuthn user handle the ceremony was issued for.
	UserHandle []byte

	// Challenge is the raw challenge bytes the response must be bound to.
	Challenge []byte

	// Response is the raw credential creation response JSON from the
	// browser, passed through opaquely.
	Response []byte
}

// VerifyAuthenticationParams carries everything the engine needs to
// validate an assertion response against a stored credential.
type VerifyAuthenticationParams struct {
	// UserHandle is the WebAuthn user handle the ceremony was issued for.
	UserHandle []byte

	// Challenge is the raw challenge bytes the response must be bound to.
	Challenge []byte

	// Credential is the stored credential material being asserted.
	Credential webauthn.Credential

	// Response is the raw credential assertion response JSON from the
	// browser, passed through opaquely.
	Response []byte
}

// AuthVerification is the engine's result for a validated assertion.
type AuthVerification struct {
	// Credential is the stored credential with its post-assertion state
	// (updated sign counter, clone warning).
	Credential webauthn.Credential

	// CloneWarning indicates the authenticator reported a sign count at or
	// below the stored value, a possible cloned credential.
	CloneWarning bool
}

// Verifier is the cryptographic verification engine boundary. The Service
// treats it as a black box: engine failures surface as
// ErrVerificationFailed and are never interpreted further.
type Verifier interface {
	// VerifyRegistration validates an attestation response and returns the
	// new credential material, including the authenticator-assigned ID.
	VerifyRegistration(ctx context.Context, params VerifyRegistrationParams) (*webauthn.Credential, error)

	// CredentialID parses a raw assertion response only far enough to
	// extract the claimed credential ID.
	CredentialID(rawResponse []byte) (PasskeyID, error)

	// VerifyAuthentication validates an assertion response against a stored
	// credential.
	VerifyAuthentication(ctx context.Context, params VerifyAuthenticationParams) (*AuthVerification, error)
}

// TokenGenerator is an optional interface for producing tokens after
// successful registration or authentication. If not provided, the service
// returns the base64-encoded user ID.
type TokenGenerator interface {
	// GenerateToken creates a JWT or other token for the given user.
	GenerateToken(ctx context.Context, userID UserID) (string, error)
}
