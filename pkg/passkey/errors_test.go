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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"invalid user id", ErrInvalidUserID, KindValidation},
		{"invalid name", ErrInvalidName, KindValidation},
		{"name error matches sentinel", &NameError{Reason: NameTooLong, Max: MaxNameLength}, KindValidation},
		{"duplicate name", ErrDuplicateName, KindValidation},
		{"challenge not found", ErrChallengeNotFound, KindValidation},
		{"challenge expired", ErrChallengeExpired, KindValidation},
		{"passkey not found", ErrPasskeyNotFound, KindValidation},
		{"no credentials", ErrNoCredentials, KindValidation},
		{"verification failed", ErrVerificationFailed, KindVerification},
		{"wrapped verification failure", fmt.Errorf("%w: bad origin", ErrVerificationFailed), KindVerification},
		{"store failure", errors.New("connection refused"), KindInfrastructure},
		{"nil", nil, KindInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyWrapped(t *testing.T) {
	// Classification survives operation wrapping
	err := WrapError("load challenge", ErrChallengeExpired)
	assert.Equal(t, KindValidation, Classify(err))

	err = WrapError("verify registration", fmt.Errorf("%w: challenge mismatch", ErrVerificationFailed))
	assert.Equal(t, KindVerification, Classify(err))
}

func TestCeremonyError(t *testing.T) {
	err := NewError("load challenge", ErrChallengeNotFound)
	assert.Equal(t, "load challenge: challenge not found", err.Error())
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	var ceremonyErr *CeremonyError
	assert.ErrorAs(t, err, &ceremonyErr)
	assert.Equal(t, "load challenge", ceremonyErr.Op)
	assert.Equal(t, ErrChallengeNotFound, errors.Unwrap(err))
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError("anything", nil))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsInvalidName(WrapError("validate passkey name", &NameError{Reason: NameEmpty})))
	assert.True(t, IsDuplicateName(WrapError("validate passkey name", ErrDuplicateName)))
	assert.True(t, IsChallengeNotFound(WrapError("load challenge", ErrChallengeNotFound)))
	assert.True(t, IsChallengeExpired(WrapError("load challenge", ErrChallengeExpired)))
	assert.True(t, IsPasskeyNotFound(WrapError("load credential", ErrPasskeyNotFound)))
	assert.True(t, IsVerificationFailed(WrapError("verify authentication", ErrVerificationFailed)))

	assert.False(t, IsInvalidName(ErrDuplicateName))
	assert.False(t, IsVerificationFailed(errors.New("io error")))
}
