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
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Config configures the passkey service.
type Config struct {
	// RPID is the Relying Party identifier, typically the domain name.
	// Example: "example.com"
	RPID string `yaml:"id" json:"id" mapstructure:"id"`

	// RPDisplayName is the human-readable name of the Relying Party.
	// Example: "Example Corp"
	RPDisplayName string `yaml:"display_name" json:"display_name" mapstructure:"display_name"`

	// RPOrigins are the allowed origins for WebAuthn operations.
	// Example: []string{"https://example.com", "https://www.example.com"}
	RPOrigins []string `yaml:"origins" json:"origins" mapstructure:"origins"`

	// Timeout bounds each ceremony; challenges expire after this duration.
	// Default: 60 seconds
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`

	// UserVerification specifies the user verification requirement.
	// Options: "required", "preferred", "discouraged"
	// Default: "required"
	UserVerification string `yaml:"user_verification" json:"user_verification" mapstructure:"user_verification"`

	// AcceptedAlgorithms is the ordered list of COSE algorithms offered to
	// authenticators at registration.
	// Options: "EdDSA", "ES256", "RS256"
	// Default: ["EdDSA", "ES256", "RS256"]
	AcceptedAlgorithms []string `yaml:"algorithms" json:"algorithms" mapstructure:"algorithms"`

	// AttestationPreference specifies the attestation conveyance preference.
	// Options: "none", "indirect", "direct", "enterprise"
	// Default: "none"
	AttestationPreference string `yaml:"attestation" json:"attestation" mapstructure:"attestation"`

	// ResidentKeyRequirement specifies whether to require resident keys.
	// Options: "required", "preferred", "discouraged"
	// Default: "preferred"
	ResidentKeyRequirement string `yaml:"resident_key" json:"resident_key" mapstructure:"resident_key"`

	// AuthenticatorAttachment limits the type of authenticators allowed.
	// Options: "platform", "cross-platform", "" (any)
	// Default: "" (any)
	AuthenticatorAttachment string `yaml:"authenticator_attachment" json:"authenticator_attachment" mapstructure:"authenticator_attachment"`

	// Hints suggest a credential flow to the browser, in preference order.
	// Options: "security-key", "client-device", "hybrid"
	Hints []string `yaml:"hints,omitempty" json:"hints,omitempty" mapstructure:"hints"`

	// ChallengeLength is the size of generated challenges in bytes.
	// Default: 32
	ChallengeLength int `yaml:"challenge_length" json:"challenge_length" mapstructure:"challenge_length"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug" json:"debug" mapstructure:"debug"`
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.RPID == "" {
		return fmt.Errorf("RPID is required")
	}
	if c.RPDisplayName == "" {
		return fmt.Errorf("RPDisplayName is required")
	}
	if len(c.RPOrigins) == 0 {
		return fmt.Errorf("at least one RPOrigin is required")
	}

	switch c.UserVerification {
	case "", "required", "preferred", "discouraged":
	default:
		return fmt.Errorf("invalid user verification: %s", c.UserVerification)
	}

	for _, alg := range c.AcceptedAlgorithms {
		if _, err := coseAlgorithm(alg); err != nil {
			return err
		}
	}

	switch c.AttestationPreference {
	case "", "none", "indirect", "direct", "enterprise":
	default:
		return fmt.Errorf("invalid attestation preference: %s", c.AttestationPreference)
	}

	switch c.ResidentKeyRequirement {
	case "", "required", "preferred", "discouraged":
	default:
		return fmt.Errorf("invalid resident key requirement: %s", c.ResidentKeyRequirement)
	}

	switch c.AuthenticatorAttachment {
	case "", "platform", "cross-platform":
	default:
		return fmt.Errorf("invalid authenticator attachment: %s", c.AuthenticatorAttachment)
	}

	for _, hint := range c.Hints {
		switch hint {
		case "security-key", "client-device", "hybrid":
		default:
			return fmt.Errorf("invalid hint: %s", hint)
		}
	}

	if c.ChallengeLength < 0 {
		return fmt.Errorf("invalid challenge length: %d", c.ChallengeLength)
	}

	return nil
}

// SetDefaults sets default values for unset configuration fields.
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.UserVerification == "" {
		c.UserVerification = "required"
	}
	if len(c.AcceptedAlgorithms) == 0 {
		c.AcceptedAlgorithms = []string{"EdDSA", "ES256", "RS256"}
	}
	if c.AttestationPreference == "" {
		c.AttestationPreference = "none"
	}
	if c.ResidentKeyRequirement == "" {
		c.ResidentKeyRequirement = "preferred"
	}
	if c.ChallengeLength == 0 {
		c.ChallengeLength = 32
	}
}

// ToWebAuthnConfig converts the Config to the go-webauthn library's
// configuration, used by the default verification engine.
func (c *Config) ToWebAuthnConfig() *webauthn.Config {
	return &webauthn.Config{
		RPID:                   c.RPID,
		RPDisplayName:          c.RPDisplayName,
		RPOrigins:              c.RPOrigins,
		Debug:                  c.Debug,
		AttestationPreference:  c.conveyancePreference(),
		AuthenticatorSelection: c.authenticatorSelection(),
	}
}

func coseAlgorithm(name string) (webauthncose.COSEAlgorithmIdentifier, error) {
	switch name {
	case "EdDSA":
		return webauthncose.AlgEdDSA, nil
	case "ES256":
		return webauthncose.AlgES256, nil
	case "RS256":
		return webauthncose.AlgRS256, nil
	default:
		return 0, fmt.Errorf("unsupported algorithm: %s", name)
	}
}

// credentialParameters maps the accepted algorithms to the parameter list
// sent in registration options, preserving preference order.
func (c *Config) credentialParameters() []protocol.CredentialParameter {
	params := make([]protocol.CredentialParameter, 0, len(c.AcceptedAlgorithms))
	for _, name := range c.AcceptedAlgorithms {
		alg, err := coseAlgorithm(name)
		if err != nil {
			continue
		}
		params = append(params, protocol.CredentialParameter{
			Type:      protocol.PublicKeyCredentialType,
			Algorithm: alg,
		})
	}
	return params
}

func (c *Config) userVerification() protocol.UserVerificationRequirement {
	switch c.UserVerification {
	case "required":
		return protocol.VerificationRequired
	case "discouraged":
		return protocol.VerificationDiscouraged
	default:
		return protocol.VerificationPreferred
	}
}

func (c *Config) conveyancePreference() protocol.ConveyancePreference {
	switch c.AttestationPreference {
	case "indirect":
		return protocol.PreferIndirectAttestation
	case "direct":
		return protocol.PreferDirectAttestation
	case "enterprise":
		return protocol.PreferEnterpriseAttestation
	default:
		return protocol.PreferNoAttestation
	}
}

func (c *Config) authenticatorSelection() protocol.AuthenticatorSelection {
	selection := protocol.AuthenticatorSelection{
		UserVerification: c.userVerification(),
	}

	switch c.ResidentKeyRequirement {
	case "required":
		selection.ResidentKey = protocol.ResidentKeyRequirementRequired
	case "discouraged":
		selection.ResidentKey = protocol.ResidentKeyRequirementDiscouraged
	default:
		selection.ResidentKey = protocol.ResidentKeyRequirementPreferred
	}

	switch c.AuthenticatorAttachment {
	case "platform":
		selection.AuthenticatorAttachment = protocol.Platform
	case "cross-platform":
		selection.AuthenticatorAttachment = protocol.CrossPlatform
	}

	return selection
}

func (c *Config) credentialHints() []protocol.PublicKeyCredentialHints {
	if len(c.Hints) == 0 {
		return nil
	}
	hints := make([]protocol.PublicKeyCredentialHints, 0, len(c.Hints))
	for _, hint := range c.Hints {
		hints = append(hints, protocol.PublicKeyCredentialHints(hint))
	}
	return hints
}
