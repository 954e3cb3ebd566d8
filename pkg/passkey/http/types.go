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

package http

import (
	"encoding/json"
	"time"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// HeaderUserID is the header carrying the authenticated user's identifier.
// The gateway in front of these endpoints is responsible for
// authenticating the caller and setting this header.
const HeaderUserID = "X-User-Id"

// BeginRegistrationRequest is the request body for starting registration.
type BeginRegistrationRequest struct {
	// DisplayName is the user's display name (optional, defaults to the
	// user ID).
	DisplayName string `json:"display_name,omitempty"`
}

// FinishRegistrationRequest is the request body for completing registration.
type FinishRegistrationRequest struct {
	// Name is the display label for the new passkey (required).
	Name string `json:"name"`

	// Response is the attestation response from the authenticator, passed
	// through opaquely.
	Response json.RawMessage `json:"response"`
}

// RegistrationStatusResponse is the response for registration status.
type RegistrationStatusResponse struct {
	// Registered indicates if the user has registered passkeys.
	Registered bool `json:"registered"`
}

// PasskeyResponse is the wire representation of a registered passkey.
type PasskeyResponse struct {
	// ID is the base64url-encoded credential ID.
	ID string `json:"id"`

	// Name is the display label chosen at registration.
	Name string `json:"name"`

	// SignCount is the authenticator's signature counter as last verified.
	SignCount uint32 `json:"sign_count"`

	// CloneWarning indicates a sign count regression was observed.
	CloneWarning bool `json:"clone_warning,omitempty"`

	// CreatedAt is when the passkey was registered.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is when the passkey last completed authentication.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func toPasskeyResponse(p *passkey.Passkey) PasskeyResponse {
	return PasskeyResponse{
		ID:           p.ID.String(),
		Name:         p.Name.String(),
		SignCount:    p.SignCount(),
		CloneWarning: p.CloneWarning(),
		CreatedAt:    p.CreatedAt,
		LastUsedAt:   p.LastUsedAt,
	}
}

// AuthResponse is the response after successful registration or login.
type AuthResponse struct {
	// Token is the authentication token (JWT or base64 user ID).
	Token string `json:"token"`

	// Passkey is the credential that completed the ceremony.
	Passkey PasskeyResponse `json:"passkey"`
}

// ErrorResponse is the response format for errors.
type ErrorResponse struct {
	// Error is the error code.
	Error string `json:"error"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidName        = "invalid_name"
	ErrorCodeDuplicateName      = "duplicate_name"
	ErrorCodeChallengeNotFound  = "challenge_not_found"
	ErrorCodeChallengeExpired   = "challenge_expired"
	ErrorCodePasskeyNotFound    = "passkey_not_found"
	ErrorCodeNoCredentials      = "no_credentials"
	ErrorCodeVerificationFailed = "verification_failed"
	ErrorCodeInternalError      = "internal_error"
)
