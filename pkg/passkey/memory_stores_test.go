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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChallenge(userID UserID, kind CeremonyKind, value string) Challenge {
	return Challenge{
		UserID:    userID,
		Kind:      kind,
		Value:     []byte(value),
		ExpiresAt: time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC),
	}
}

func TestMemoryChallengeStoreInsertAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallengeStore()

	require.NoError(t, store.Insert(ctx, testChallenge("alice", CeremonyRegistration, "c1")))

	challenge, err := store.Load(ctx, "alice", CeremonyRegistration)
	require.NoError(t, err)
	assert.Equal(t, []byte("c1"), challenge.Value)

	_, err = store.Load(ctx, "alice", CeremonyAuthentication)
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	_, err = store.Load(ctx, "bob", CeremonyRegistration)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestMemoryChallengeStoreReplace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallengeStore()

	require.NoError(t, store.Insert(ctx, testChallenge("alice", CeremonyRegistration, "c1")))
	require.NoError(t, store.Insert(ctx, testChallenge("alice", CeremonyRegistration, "c2")))

	assert.Equal(t, 1, store.Count())

	challenge, err := store.Load(ctx, "alice", CeremonyRegistration)
	require.NoError(t, err)
	assert.Equal(t, []byte("c2"), challenge.Value)
}

func TestMemoryChallengeStoreKindsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallengeStore()

	require.NoError(t, store.Insert(ctx, testChallenge("alice", CeremonyRegistration, "reg")))
	require.NoError(t, store.Insert(ctx, testChallenge("alice", CeremonyAuthentication, "auth")))

	assert.Equal(t, 2, store.Count())

	reg, err := store.Load(ctx, "alice", CeremonyRegistration)
	require.NoError(t, err)
	assert.Equal(t, []byte("reg"), reg.Value)

	auth, err := store.Load(ctx, "alice", CeremonyAuthentication)
	require.NoError(t, err)
	assert.Equal(t, []byte("auth"), auth.Value)
}

func TestMemoryChallengeStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryChallengeStore()

	require.NoError(t, store.Insert(ctx, testChallenge("alice", CeremonyRegistration, "c1")))
	require.NoError(t, store.Delete(ctx, "alice", CeremonyRegistration))

	_, err := store.Load(ctx, "alice", CeremonyRegistration)
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	// Deleting an absent challenge is not an error
	assert.NoError(t, store.Delete(ctx, "alice", CeremonyRegistration))
}

func newTestPasskey(t *testing.T, id, name string) *Passkey {
	t.Helper()

	parsed, err := ParsePasskeyName(name)
	require.NoError(t, err)
	return &Passkey{
		ID:         PasskeyID([]byte(id)),
		Name:       parsed,
		Credential: testCredential([]byte(id), 0),
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryCredentialStoreUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	passkey := newTestPasskey(t, "cred-1", "Laptop")
	require.NoError(t, store.Upsert(ctx, "alice", passkey))

	got, err := store.Get(ctx, "alice", passkey.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", got.Name.String())

	_, err = store.Get(ctx, "alice", PasskeyID([]byte("missing")))
	assert.ErrorIs(t, err, ErrPasskeyNotFound)
}

func TestMemoryCredentialStoreCrossUserIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	passkey := newTestPasskey(t, "cred-1", "Laptop")
	require.NoError(t, store.Upsert(ctx, "alice", passkey))

	// The same credential ID under a different user does not resolve
	_, err := store.Get(ctx, "bob", passkey.ID)
	assert.ErrorIs(t, err, ErrPasskeyNotFound)

	list, err := store.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryCredentialStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	passkey := newTestPasskey(t, "cred-1", "Laptop")
	require.NoError(t, store.Upsert(ctx, "alice", passkey))

	updated := newTestPasskey(t, "cred-1", "Laptop")
	updated.Credential.Authenticator.SignCount = 5
	require.NoError(t, store.Upsert(ctx, "alice", updated))

	assert.Equal(t, 1, store.Count())

	got, err := store.Get(ctx, "alice", passkey.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), got.SignCount())
}

func TestMemoryCredentialStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	passkey := newTestPasskey(t, "cred-1", "Laptop")
	require.NoError(t, store.Upsert(ctx, "alice", passkey))

	got, err := store.Get(ctx, "alice", passkey.ID)
	require.NoError(t, err)

	// Mutating the returned passkey must not leak into the store
	now := time.Now()
	got.LastUsedAt = &now
	got.Credential.Authenticator.SignCount = 99

	fresh, err := store.Get(ctx, "alice", passkey.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.LastUsedAt)
	assert.Equal(t, uint32(0), fresh.SignCount())
}

func TestMemoryCredentialStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Upsert(ctx, "alice", newTestPasskey(t, "cred-1", "Laptop")))
	require.NoError(t, store.Upsert(ctx, "alice", newTestPasskey(t, "cred-2", "Phone")))
	require.NoError(t, store.Upsert(ctx, "bob", newTestPasskey(t, "cred-3", "Key")))

	list, err = store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 3, store.Count())
}

func TestMemoryCredentialStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	passkey := newTestPasskey(t, "cred-1", "Laptop")
	require.NoError(t, store.Upsert(ctx, "alice", passkey))

	// Another user cannot delete it
	assert.ErrorIs(t, store.Delete(ctx, "bob", passkey.ID), ErrPasskeyNotFound)

	require.NoError(t, store.Delete(ctx, "alice", passkey.ID))
	assert.ErrorIs(t, store.Delete(ctx, "alice", passkey.ID), ErrPasskeyNotFound)
	assert.Equal(t, 0, store.Count())
}
