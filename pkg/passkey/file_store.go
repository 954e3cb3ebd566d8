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
	"os"
	"path/filepath"
	"sync"
)

// FileCredentialStore is a file-backed implementation of CredentialStore.
// Each user's passkeys are stored in a single JSON document named by the
// base64url encoding of the user ID. Writes go through a temp file and
// rename so a crash never leaves a partially written document.
type FileCredentialStore struct {
	mu      sync.RWMutex
	rootDir string
}

// NewFileCredentialStore creates a file-backed credential store rooted at
// the given directory. The directory is created with 0700 permissions if it
// does not exist.
func NewFileCredentialStore(rootDir string) (*FileCredentialStore, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	if err := os.MkdirAll(rootDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}
	return &FileCredentialStore{rootDir: rootDir}, nil
}

// Get retrieves a passkey owned by the given user.
func (s *FileCredentialStore) Get(ctx context.Context, userID UserID, id PasskeyID) (*Passkey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	passkeys, err := s.readUser(userID)
	if err != nil {
		return nil, err
	}
	for _, passkey := range passkeys {
		if passkey.ID.Equal(id) {
			return passkey, nil
		}
	}
	return nil, ErrPasskeyNotFound
}

// List retrieves all passkeys owned by a user.
func (s *FileCredentialStore) List(ctx context.Context, userID UserID) ([]*Passkey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readUser(userID)
}

// Upsert inserts or replaces a passkey and rewrites the user's document.
func (s *FileCredentialStore) Upsert(ctx context.Context, userID UserID, passkey *Passkey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	passkeys, err := s.readUser(userID)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range passkeys {
		if existing.ID.Equal(passkey.ID) {
			passkeys[i] = passkey
			replaced = true
			break
		}
	}
	if !replaced {
		passkeys = append(passkeys, passkey)
	}

	return s.writeUser(userID, passkeys)
}

// Delete removes a passkey by its ID. The user's document is removed
// entirely when the last passkey is deleted.
func (s *FileCredentialStore) Delete(ctx context.Context, userID UserID, id PasskeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	passkeys, err := s.readUser(userID)
	if err != nil {
		return err
	}

	for i, passkey := range passkeys {
		if passkey.ID.Equal(id) {
			passkeys = append(passkeys[:i], passkeys[i+1:]...)
			if len(passkeys) == 0 {
				if err := os.Remove(s.userPath(userID)); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to remove credential file: %w", err)
				}
				return nil
			}
			return s.writeUser(userID, passkeys)
		}
	}
	return ErrPasskeyNotFound
}

func (s *FileCredentialStore) userPath(userID UserID) string {
	name := base64.RawURLEncoding.EncodeToString(userID.Bytes())
	return filepath.Join(s.rootDir, name+".json")
}

func (s *FileCredentialStore) readUser(userID UserID) ([]*Passkey, error) {
	data, err := os.ReadFile(s.userPath(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return []*Passkey{}, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var passkeys []*Passkey
	if err := json.Unmarshal(data, &passkeys); err != nil {
		return nil, fmt.Errorf("failed to decode credential file: %w", err)
	}
	return passkeys, nil
}

func (s *FileCredentialStore) writeUser(userID UserID, passkeys []*Passkey) error {
	data, err := json.MarshalIndent(passkeys, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	path := s.userPath(userID)
	tmp, err := os.CreateTemp(s.rootDir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set credential file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close credential file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}
