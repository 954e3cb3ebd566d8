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

// Package passkey provides a WebAuthn (FIDO2) relying-party ceremony
// orchestrator that can be used as a library in any Go application.
//
// This package wraps the go-webauthn/webauthn library behind a narrow
// verification-engine boundary and provides:
//   - Named, per-user passkey credentials with validated display labels
//   - Single-flight, time-bounded challenges keyed by (user, ceremony kind)
//   - Pluggable storage interfaces for challenges and credentials
//   - In-memory and file-backed storage implementations
//   - Composable HTTP handlers that can be mounted on any router
//   - Optional JWT generation after successful ceremonies
//
// # Architecture
//
// The package is designed with a layered architecture:
//
//  1. Service layer (Service) - Registration and login ceremonies
//  2. Storage layer (ChallengeStore, CredentialStore) - Pluggable persistence
//  3. Engine layer (Verifier) - Attestation and assertion verification
//  4. HTTP layer (pkg/passkey/http) - Composable HTTP handlers
//
// Each ceremony is two calls: a Begin call that lists the user's current
// credentials, issues a fresh challenge and returns browser options, and a
// Finish call that validates the signed response against that challenge and
// the stored credential. No in-process state survives between the two
// phases; everything lives in the challenge store.
//
// # Usage
//
// Basic usage with in-memory storage (for development):
//
//	svc, err := passkey.NewService(passkey.ServiceParams{
//	    Config: &passkey.Config{
//	        RPID:          "localhost",
//	        RPDisplayName: "My App",
//	        RPOrigins:     []string{"https://localhost:3000"},
//	    },
//	    ChallengeStore:  passkey.NewMemoryChallengeStore(),
//	    CredentialStore: passkey.NewMemoryCredentialStore(),
//	})
//
// For production, implement the storage interfaces with your database, or
// use the file-backed credential store.
//
// # WebAuthn Specification Compliance
//
// This implementation follows the W3C Web Authentication specification:
//   - https://www.w3.org/TR/webauthn-2/
//   - https://www.w3.org/TR/webauthn-3/
//
// Note: WebAuthn requires HTTPS for all operations. Browsers will only
// expose the WebAuthn API in secure contexts.
package passkey
