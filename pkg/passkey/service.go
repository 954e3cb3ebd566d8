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
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/jeremyhahn/go-passkey/pkg/metrics"
)

// Service orchestrates passkey registration and authentication ceremonies.
// Each call is a short-lived, stateless operation over the two stores; all
// cross-phase state lives in the challenge store.
type Service struct {
	config      *Config
	challenges  ChallengeStore
	credentials CredentialStore
	verifier    Verifier
	tokens      TokenGenerator
	logger      *slog.Logger
	clock       func() time.Time
}

// ServiceParams contains dependencies for creating a passkey service.
type ServiceParams struct {
	// Config is the relying-party configuration (required).
	Config *Config

	// ChallengeStore is the challenge persistence layer (required).
	ChallengeStore ChallengeStore

	// CredentialStore is the credential persistence layer (required).
	CredentialStore CredentialStore

	// Verifier is the verification engine. If nil, a go-webauthn-backed
	// engine is built from Config.
	Verifier Verifier

	// TokenGenerator is an optional token generator for post-ceremony
	// tokens. If nil, IssueToken returns the base64-encoded user ID.
	TokenGenerator TokenGenerator

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Clock returns the current time. Defaults to time.Now. Tests inject a
	// fixed clock for deterministic expiry behavior.
	Clock func() time.Time
}

// NewService creates a new passkey service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.ChallengeStore == nil {
		return nil, fmt.Errorf("challenge store is required")
	}
	if params.CredentialStore == nil {
		return nil, fmt.Errorf("credential store is required")
	}

	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	verifier := params.Verifier
	if verifier == nil {
		var err error
		verifier, err = NewWebAuthnVerifier(params.Config)
		if err != nil {
			return nil, err
		}
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		config:      params.Config,
		challenges:  params.ChallengeStore,
		credentials: params.CredentialStore,
		verifier:    verifier,
		tokens:      params.TokenGenerator,
		logger:      logger,
		clock:       clock,
	}, nil
}

// BeginRegistration starts the registration ceremony. It issues a fresh
// challenge for the user, superseding any prior registration challenge, and
// returns the credential creation options to relay to the browser. Existing
// credential IDs are placed on the exclude list so an authenticator that
// already holds a passkey for this user does not create another.
func (s *Service) BeginRegistration(ctx context.Context, userID UserID, displayName string) (*protocol.CredentialCreation, error) {
	if _, err := ParseUserID(string(userID)); err != nil {
		return nil, WrapError("begin registration", err)
	}

	existing, err := s.credentials.List(ctx, userID)
	if err != nil {
		return nil, WrapError("list credentials", err)
	}

	challenge, err := s.issueChallenge(ctx, userID, CeremonyRegistration)
	if err != nil {
		return nil, err
	}

	if displayName == "" {
		displayName = string(userID)
	}

	options := &protocol.CredentialCreation{
		Response: protocol.PublicKeyCredentialCreationOptions{
			Challenge: protocol.URLEncodedBase64(challenge.Value),
			RelyingParty: protocol.RelyingPartyEntity{
				CredentialEntity: protocol.CredentialEntity{Name: s.config.RPDisplayName},
				ID:               s.config.RPID,
			},
			User: protocol.UserEntity{
				CredentialEntity: protocol.CredentialEntity{Name: string(userID)},
				DisplayName:      displayName,
				ID:               protocol.URLEncodedBase64(userID.Bytes()),
			},
			Parameters:             s.config.credentialParameters(),
			Timeout:                int(s.config.Timeout.Milliseconds()),
			AuthenticatorSelection: s.config.authenticatorSelection(),
			Attestation:            s.config.conveyancePreference(),
			CredentialExcludeList:  credentialDescriptors(existing),
			Hints:                  s.config.credentialHints(),
		},
	}

	metrics.RecordChallengeIssued(string(CeremonyRegistration))
	return options, nil
}

// FinishRegistration completes the registration ceremony. The display label
// is validated before the challenge is consumed, so a rejected name leaves
// the challenge intact for a retry. The challenge is deleted only after the
// new passkey has been persisted. The sign counter starts at the value the
// attestation reports rather than zero; authenticators that begin counting
// above zero would otherwise raise a clone warning on their first login.
func (s *Service) FinishRegistration(ctx context.Context, userID UserID, rawName string, response []byte) (*Passkey, error) {
	start := s.clock()
	passkey, err := s.finishRegistration(ctx, userID, rawName, response)
	metrics.RecordCeremony(string(CeremonyRegistration), s.clock().Sub(start), err)
	return passkey, err
}

func (s *Service) finishRegistration(ctx context.Context, userID UserID, rawName string, response []byte) (*Passkey, error) {
	name, err := ParsePasskeyName(rawName)
	if err != nil {
		s.logger.Warn("passkey name rejected",
			"user_id", string(userID),
			"error", err)
		return nil, WrapError("validate passkey name", err)
	}

	existing, err := s.credentials.List(ctx, userID)
	if err != nil {
		return nil, WrapError("list credentials", err)
	}
	for _, passkey := range existing {
		if passkey.Name.Equal(name) {
			s.logger.Warn("duplicate passkey name",
				"user_id", string(userID),
				"name", name.String())
			return nil, WrapError("validate passkey name", ErrDuplicateName)
		}
	}

	challenge, err := s.loadChallenge(ctx, userID, CeremonyRegistration)
	if err != nil {
		return nil, err
	}

	credential, err := s.verifier.VerifyRegistration(ctx, VerifyRegistrationParams{
		UserHandle: userID.Bytes(),
		Challenge:  challenge.Value,
		Response:   response,
	})
	if err != nil {
		s.logger.Error("registration verification failed",
			"user_id", string(userID),
			"error", err)
		return nil, WrapError("verify registration", err)
	}

	passkey := &Passkey{
		ID:         PasskeyID(credential.ID),
		Name:       name,
		Credential: *credential,
		CreatedAt:  s.clock().UTC(),
	}

	if err := s.credentials.Upsert(ctx, userID, passkey); err != nil {
		// The challenge stays in place so the verified response can be
		// retried instead of silently dropping an unsaved credential.
		return nil, WrapError("save credential", err)
	}
	s.deleteChallenge(ctx, userID, CeremonyRegistration)

	s.logger.Info("passkey registered",
		"user_id", string(userID),
		"passkey_id", passkey.ID.String(),
		"name", name.String())
	return passkey, nil
}

// BeginLogin starts the authentication ceremony. It issues a fresh
// challenge for the user, superseding any prior authentication challenge,
// and returns the assertion options with the user's credential IDs as the
// allow list.
func (s *Service) BeginLogin(ctx context.Context, userID UserID) (*protocol.CredentialAssertion, error) {
	if _, err := ParseUserID(string(userID)); err != nil {
		return nil, WrapError("begin login", err)
	}

	existing, err := s.credentials.List(ctx, userID)
	if err != nil {
		return nil, WrapError("list credentials", err)
	}
	if len(existing) == 0 {
		return nil, WrapError("begin login", ErrNoCredentials)
	}

	challenge, err := s.issueChallenge(ctx, userID, CeremonyAuthentication)
	if err != nil {
		return nil, err
	}

	options := &protocol.CredentialAssertion{
		Response: protocol.PublicKeyCredentialRequestOptions{
			Challenge:          protocol.URLEncodedBase64(challenge.Value),
			RelyingPartyID:     s.config.RPID,
			Timeout:            int(s.config.Timeout.Milliseconds()),
			AllowedCredentials: credentialDescriptors(existing),
			UserVerification:   s.config.userVerification(),
			Hints:              s.config.credentialHints(),
		},
	}

	metrics.RecordChallengeIssued(string(CeremonyAuthentication))
	return options, nil
}

// FinishLogin completes the authentication ceremony. The claimed credential
// ID is looked up under the caller's user ID, never trusted on its own, so
// one user's credential can never authenticate another. The challenge is
// deleted only after the updated passkey has been persisted.
func (s *Service) FinishLogin(ctx context.Context, userID UserID, response []byte) (*Passkey, error) {
	start := s.clock()
	passkey, err := s.finishLogin(ctx, userID, response)
	metrics.RecordCeremony(string(CeremonyAuthentication), s.clock().Sub(start), err)
	return passkey, err
}

func (s *Service) finishLogin(ctx context.Context, userID UserID, response []byte) (*Passkey, error) {
	challenge, err := s.loadChallenge(ctx, userID, CeremonyAuthentication)
	if err != nil {
		return nil, err
	}

	credentialID, err := s.verifier.CredentialID(response)
	if err != nil {
		return nil, WrapError("parse assertion", err)
	}

	passkey, err := s.credentials.Get(ctx, userID, credentialID)
	if err != nil {
		return nil, WrapError("load credential", err)
	}

	result, err := s.verifier.VerifyAuthentication(ctx, VerifyAuthenticationParams{
		UserHandle: userID.Bytes(),
		Challenge:  challenge.Value,
		Credential: passkey.Credential,
		Response:   response,
	})
	if err != nil {
		s.logger.Error("authentication verification failed",
			"user_id", string(userID),
			"passkey_id", credentialID.String(),
			"error", err)
		return nil, WrapError("verify authentication", err)
	}

	if result.CloneWarning {
		// Surfaced for anti-clone auditing; the ceremony itself proceeds.
		s.logger.Warn("sign count regression detected",
			"user_id", string(userID),
			"passkey_id", credentialID.String(),
			"stored_sign_count", passkey.SignCount(),
			"reported_sign_count", result.Credential.Authenticator.SignCount)
		metrics.RecordCloneWarning()
	}

	passkey.recordAuthentication(result.Credential, s.clock().UTC())

	if err := s.credentials.Upsert(ctx, userID, passkey); err != nil {
		return nil, WrapError("save credential", err)
	}
	s.deleteChallenge(ctx, userID, CeremonyAuthentication)

	s.logger.Info("passkey authenticated",
		"user_id", string(userID),
		"passkey_id", passkey.ID.String(),
		"sign_count", passkey.SignCount())
	return passkey, nil
}

// ListPasskeys retrieves all passkeys registered for a user.
func (s *Service) ListPasskeys(ctx context.Context, userID UserID) ([]*Passkey, error) {
	passkeys, err := s.credentials.List(ctx, userID)
	if err != nil {
		return nil, WrapError("list credentials", err)
	}
	return passkeys, nil
}

// DeletePasskey removes a passkey owned by the user.
func (s *Service) DeletePasskey(ctx context.Context, userID UserID, id PasskeyID) error {
	if err := s.credentials.Delete(ctx, userID, id); err != nil {
		return WrapError("delete credential", err)
	}
	s.logger.Info("passkey deleted",
		"user_id", string(userID),
		"passkey_id", id.String())
	return nil
}

// IsRegistered checks if a user has any registered passkeys.
func (s *Service) IsRegistered(ctx context.Context, userID UserID) (bool, error) {
	passkeys, err := s.credentials.List(ctx, userID)
	if err != nil {
		return false, WrapError("list credentials", err)
	}
	return len(passkeys) > 0, nil
}

// IssueToken creates a token for a user who just completed a ceremony.
// Without a configured TokenGenerator it returns the base64-encoded user ID.
func (s *Service) IssueToken(ctx context.Context, userID UserID) (string, error) {
	if s.tokens != nil {
		return s.tokens.GenerateToken(ctx, userID)
	}
	return base64.RawURLEncoding.EncodeToString(userID.Bytes()), nil
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}

// issueChallenge generates a fresh random challenge and stores it,
// superseding any outstanding challenge for the same (user, kind) pair.
func (s *Service) issueChallenge(ctx context.Context, userID UserID, kind CeremonyKind) (*Challenge, error) {
	value := make([]byte, s.config.ChallengeLength)
	if _, err := rand.Read(value); err != nil {
		return nil, WrapError("generate challenge", err)
	}

	challenge := Challenge{
		UserID:    userID,
		Kind:      kind,
		Value:     value,
		ExpiresAt: s.clock().UTC().Add(s.config.Timeout),
	}
	if err := s.challenges.Insert(ctx, challenge); err != nil {
		return nil, WrapError("store challenge", err)
	}
	return &challenge, nil
}

// loadChallenge retrieves the outstanding challenge for a (user, kind)
// pair. Expiry is always checked here against the service clock; the store
// is never trusted to pre-filter expired entries.
func (s *Service) loadChallenge(ctx context.Context, userID UserID, kind CeremonyKind) (*Challenge, error) {
	challenge, err := s.challenges.Load(ctx, userID, kind)
	if err != nil {
		return nil, WrapError("load challenge", err)
	}
	if challenge.Expired(s.clock().UTC()) {
		s.deleteChallenge(ctx, userID, kind)
		return nil, WrapError("load challenge", ErrChallengeExpired)
	}
	return challenge, nil
}

// deleteChallenge is best-effort cleanup. A leftover challenge is reaped on
// expiry; failing the ceremony over it would discard completed work.
func (s *Service) deleteChallenge(ctx context.Context, userID UserID, kind CeremonyKind) {
	if err := s.challenges.Delete(ctx, userID, kind); err != nil {
		s.logger.Warn("challenge cleanup failed",
			"user_id", string(userID),
			"kind", string(kind),
			"error", err)
	}
}

// credentialDescriptors converts stored passkeys into the descriptor list
// used for exclude/allow lists in ceremony options.
func credentialDescriptors(passkeys []*Passkey) []protocol.CredentialDescriptor {
	if len(passkeys) == 0 {
		return nil
	}
	descriptors := make([]protocol.CredentialDescriptor, len(passkeys))
	for i, passkey := range passkeys {
		descriptors[i] = protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: passkey.Credential.ID,
			Transport:    passkey.Credential.Transport,
		}
	}
	return descriptors
}
