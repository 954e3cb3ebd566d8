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
	"sync"
)

// challengeKey identifies the one outstanding challenge slot per user and
// ceremony kind.
type challengeKey struct {
	userID UserID
	kind   CeremonyKind
}

// MemoryChallengeStore is an in-memory implementation of ChallengeStore.
// This is intended for development and testing only.
type MemoryChallengeStore struct {
	mu         sync.RWMutex
	challenges map[challengeKey]Challenge
}

// NewMemoryChallengeStore creates a new in-memory challenge store.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[challengeKey]Challenge),
	}
}

// Insert stores a challenge, replacing any outstanding challenge for the
// same (user, kind) pair.
func (s *MemoryChallengeStore) Insert(ctx context.Context, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[challengeKey{userID: challenge.UserID, kind: challenge.Kind}] = challenge
	return nil
}

// Load retrieves the challenge for a (user, kind) pair.
func (s *MemoryChallengeStore) Load(ctx context.Context, userID UserID, kind CeremonyKind) (*Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	challenge, ok := s.challenges[challengeKey{userID: userID, kind: kind}]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	return &challenge, nil
}

// Delete removes the challenge for a (user, kind) pair. Deleting an absent
// challenge is a no-op.
func (s *MemoryChallengeStore) Delete(ctx context.Context, userID UserID, kind CeremonyKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, challengeKey{userID: userID, kind: kind})
	return nil
}

// Count returns the number of outstanding challenges in the store.
func (s *MemoryChallengeStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.challenges)
}

// Clear removes all challenges from the store.
func (s *MemoryChallengeStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges = make(map[challengeKey]Challenge)
}

// MemoryCredentialStore is an in-memory implementation of CredentialStore.
// This is intended for development and testing only.
type MemoryCredentialStore struct {
	mu     sync.RWMutex
	byUser map[UserID]map[string]*Passkey
}

// NewMemoryCredentialStore creates a new in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		byUser: make(map[UserID]map[string]*Passkey),
	}
}

// Get retrieves a passkey owned by the given user.
func (s *MemoryCredentialStore) Get(ctx context.Context, userID UserID, id PasskeyID) (*Passkey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	passkey, ok := s.byUser[userID][id.String()]
	if !ok {
		return nil, ErrPasskeyNotFound
	}
	return passkey.clone(), nil
}

// List retrieves all passkeys owned by a user.
func (s *MemoryCredentialStore) List(ctx context.Context, userID UserID) ([]*Passkey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	passkeys := make([]*Passkey, 0, len(s.byUser[userID]))
	for _, passkey := range s.byUser[userID] {
		passkeys = append(passkeys, passkey.clone())
	}
	return passkeys, nil
}

// Upsert inserts or replaces a passkey under the user's namespace.
func (s *MemoryCredentialStore) Upsert(ctx context.Context, userID UserID, passkey *Passkey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byUser[userID] == nil {
		s.byUser[userID] = make(map[string]*Passkey)
	}
	s.byUser[userID][passkey.ID.String()] = passkey.clone()
	return nil
}

// Delete removes a passkey by its ID.
func (s *MemoryCredentialStore) Delete(ctx context.Context, userID UserID, id PasskeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	passkeys, ok := s.byUser[userID]
	if !ok {
		return ErrPasskeyNotFound
	}
	if _, ok := passkeys[id.String()]; !ok {
		return ErrPasskeyNotFound
	}

	delete(passkeys, id.String())
	if len(passkeys) == 0 {
		delete(s.byUser, userID)
	}
	return nil
}

// Count returns the total number of passkeys in the store.
func (s *MemoryCredentialStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, passkeys := range s.byUser {
		total += len(passkeys)
	}
	return total
}

// Clear removes all passkeys from the store.
func (s *MemoryCredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser = make(map[UserID]map[string]*Passkey)
}
