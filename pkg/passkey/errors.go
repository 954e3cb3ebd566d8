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
	"errors"
	"fmt"
)

// Sentinel errors for ceremony operations.
var (
	// ErrInvalidUserID is returned for empty or whitespace-padded user IDs.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidPasskeyID is returned for malformed credential identifiers.
	ErrInvalidPasskeyID = errors.New("invalid passkey id")

	// ErrInvalidName is returned when a passkey display label fails
	// validation. The concrete error is a *NameError carrying the reason.
	ErrInvalidName = errors.New("invalid passkey name")

	// ErrDuplicateName is returned when a user already owns a passkey with
	// the same validated name.
	ErrDuplicateName = errors.New("duplicate passkey name")

	// ErrChallengeNotFound is returned when no challenge exists for the
	// (user, ceremony kind) pair.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeExpired is returned when the stored challenge is past its
	// deadline.
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrPasskeyNotFound is returned when a credential does not exist or is
	// not owned by the given user.
	ErrPasskeyNotFound = errors.New("passkey not found")

	// ErrNoCredentials is returned when a user has no registered passkeys.
	ErrNoCredentials = errors.New("user has no registered passkeys")

	// ErrVerificationFailed is returned when the verification engine rejects
	// an attestation or assertion response.
	ErrVerificationFailed = errors.New("verification failed")
)

// ErrorKind classifies a ceremony failure for reporting purposes.
type ErrorKind int

const (
	// KindInfrastructure covers store failures and unexpected errors.
	// Reported generically; full detail stays server-side.
	KindInfrastructure ErrorKind = iota

	// KindValidation covers caller input problems: bad names, missing or
	// expired challenges, unknown credentials. Safe to report.
	KindValidation

	// KindVerification covers cryptographic/protocol mismatches from the
	// engine. Reported as a generic failure; detail is logged only.
	KindVerification
)

// Classify maps an error returned by Service operations to its kind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidUserID),
		errors.Is(err, ErrInvalidPasskeyID),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrChallengeNotFound),
		errors.Is(err, ErrChallengeExpired),
		errors.Is(err, ErrPasskeyNotFound),
		errors.Is(err, ErrNoCredentials):
		return KindValidation
	case errors.Is(err, ErrVerificationFailed):
		return KindVerification
	default:
		return KindInfrastructure
	}
}

// CeremonyError wraps an error with the operation that produced it.
type CeremonyError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *CeremonyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CeremonyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *CeremonyError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new CeremonyError with the given operation and error.
func NewError(op string, err error) error {
	return &CeremonyError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsInvalidName returns true if the error indicates a rejected display label.
func IsInvalidName(err error) bool {
	return errors.Is(err, ErrInvalidName)
}

// IsDuplicateName returns true if the error indicates a name collision.
func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateName)
}

// IsChallengeNotFound returns true if the error indicates a missing challenge.
func IsChallengeNotFound(err error) bool {
	return errors.Is(err, ErrChallengeNotFound)
}

// IsChallengeExpired returns true if the error indicates an expired challenge.
func IsChallengeExpired(err error) bool {
	return errors.Is(err, ErrChallengeExpired)
}

// IsPasskeyNotFound returns true if the error indicates an unknown credential.
func IsPasskeyNotFound(err error) bool {
	return errors.Is(err, ErrPasskeyNotFound)
}

// IsVerificationFailed returns true if the error indicates engine rejection.
func IsVerificationFailed(err error) bool {
	return errors.Is(err, ErrVerificationFailed)
}
