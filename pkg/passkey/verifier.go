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
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// WebAuthnVerifier is the default Verifier, backed by go-webauthn. It
// performs attestation and assertion validation, COSE/CBOR decoding and
// origin/RP-ID binding checks.
type WebAuthnVerifier struct {
	webauthn *webauthn.WebAuthn
	config   *Config
}

// NewWebAuthnVerifier creates the default verification engine from the
// service configuration.
func NewWebAuthnVerifier(config *Config) (*WebAuthnVerifier, error) {
	wa, err := webauthn.New(config.ToWebAuthnConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn instance: %w", err)
	}
	return &WebAuthnVerifier{webauthn: wa, config: config}, nil
}

// VerifyRegistration validates an attestation response against the issued
// challenge and returns the new credential material.
func (v *WebAuthnVerifier) VerifyRegistration(ctx context.Context, params VerifyRegistrationParams) (*webauthn.Credential, error) {
	parsed, err := protocol.ParseCredentialCreationResponseBytes(params.Response)
	if err != nil {
		return nil, fmt.Errorf("%w: parse creation response: %v", ErrVerificationFailed, err)
	}

	// The engine only accepts credential public keys whose algorithm is
	// listed in the session, so the accepted parameter set must be
	// restated here.
	session := webauthn.SessionData{
		Challenge:        base64.RawURLEncoding.EncodeToString(params.Challenge),
		UserID:           params.UserHandle,
		UserVerification: v.config.userVerification(),
		CredParams:       v.config.credentialParameters(),
	}

	credential, err := v.webauthn.CreateCredential(&engineUser{id: params.UserHandle}, session, parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return credential, nil
}

// CredentialID extracts the claimed credential ID from a raw assertion
// response without validating the assertion itself.
func (v *WebAuthnVerifier) CredentialID(rawResponse []byte) (PasskeyID, error) {
	var envelope struct {
		RawID protocol.URLEncodedBase64 `json:"rawId"`
	}
	if err := json.Unmarshal(rawResponse, &envelope); err != nil {
		return nil, fmt.Errorf("%w: parse assertion response: %v", ErrVerificationFailed, err)
	}
	if len(envelope.RawID) == 0 {
		return nil, fmt.Errorf("%w: assertion response missing credential id", ErrVerificationFailed)
	}
	return PasskeyID(envelope.RawID), nil
}

// VerifyAuthentication validates an assertion response against the stored
// credential and returns its post-assertion state.
func (v *WebAuthnVerifier) VerifyAuthentication(ctx context.Context, params VerifyAuthenticationParams) (*AuthVerification, error) {
	parsed, err := protocol.ParseCredentialRequestResponseBytes(params.Response)
	if err != nil {
		return nil, fmt.Errorf("%w: parse assertion response: %v", ErrVerificationFailed, err)
	}

	session := webauthn.SessionData{
		Challenge:            base64.RawURLEncoding.EncodeToString(params.Challenge),
		UserID:               params.UserHandle,
		UserVerification:     v.config.userVerification(),
		AllowedCredentialIDs: [][]byte{params.Credential.ID},
	}

	user := &engineUser{
		id:          params.UserHandle,
		credentials: []webauthn.Credential{params.Credential},
	}

	validated, err := v.webauthn.ValidateLogin(user, session, parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	return &AuthVerification{
		Credential:   *validated,
		CloneWarning: validated.Authenticator.CloneWarning,
	}, nil
}

// engineUser adapts a user handle and stored credentials to the
// webauthn.User interface the engine expects.
type engineUser struct {
	id          []byte
	credentials []webauthn.Credential
}

func (u *engineUser) WebAuthnID() []byte {
	return u.id
}

func (u *engineUser) WebAuthnName() string {
	return string(u.id)
}

func (u *engineUser) WebAuthnDisplayName() string {
	return string(u.id)
}

func (u *engineUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}
