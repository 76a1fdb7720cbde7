// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	argon2Time      = 2
	argon2Memory    = 19 * 1024 // KiB
	argon2Threads   = 1
	argon2KeyLength = 32

	saltSize  = 16
	nonceSize = 24
)

// keyPattern restricts keys to names that are safe as file names.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileBackend stores one file per key under a directory.
// Writes go through a temporary file and an atomic rename.
// When a master key is set, values are sealed with NaCl secretbox
// using a key derived with argon2id and a per-write salt.
type FileBackend struct {
	sealer
	dir string
	mu  sync.RWMutex
}

// sealer seals values at rest when masterKey is set.
type sealer struct {
	masterKey []byte
}

// sealedValue is the on-disk form of a sealed value.
type sealedValue struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// NewFileBackend creates a file backend rooted at dir.
// If dir is empty it defaults to $XDG_STATE_HOME/folio (or ~/.local/state/folio).
func NewFileBackend(dir, masterKey string) (*FileBackend, error) {
	if dir == "" {
		var err error
		dir, err = DefaultStateDir()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	backend := &FileBackend{dir: dir}
	if masterKey != "" {
		backend.masterKey = []byte(masterKey)
	}
	return backend, nil
}

// DefaultStateDir returns the directory used for file-backed state.
func DefaultStateDir() (string, error) {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, "folio"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "folio"), nil
}

// Name returns the backend identifier.
func (f *FileBackend) Name() string {
	return BackendFile
}

// Dir returns the directory holding the value files.
func (f *FileBackend) Dir() string {
	return f.dir
}

// Get reads the value stored under key.
func (f *FileBackend) Get(ctx context.Context, key string) (string, error) {
	path, err := f.path(key)
	if err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	if f.masterKey == nil {
		return string(data), nil
	}
	return f.open(data)
}

// Set writes the value stored under key.
func (f *FileBackend) Set(ctx context.Context, key, value string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	data := []byte(value)
	if f.masterKey != nil {
		data, err = f.seal(data)
		if err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return writeFileAtomic(path, data)
}

// Delete removes the file for key.
func (f *FileBackend) Delete(ctx context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Available reports whether the state directory exists.
func (f *FileBackend) Available() bool {
	info, err := os.Stat(f.dir)
	return err == nil && info.IsDir()
}

func (f *FileBackend) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key), nil
}

func (f sealer) seal(plaintext []byte) ([]byte, error) {
	sv := sealedValue{
		Salt:  make([]byte, saltSize),
		Nonce: make([]byte, nonceSize),
	}
	if _, err := io.ReadFull(rand.Reader, sv.Salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, sv.Nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key := f.deriveKey(sv.Salt)
	var nonce [nonceSize]byte
	copy(nonce[:], sv.Nonce)
	sv.Data = secretbox.Seal(nil, plaintext, &nonce, key)
	zeroBytes(key[:])

	return json.Marshal(sv)
}

func (f sealer) open(data []byte) (string, error) {
	var sv sealedValue
	if err := json.Unmarshal(data, &sv); err != nil {
		return "", fmt.Errorf("invalid sealed value: %w", err)
	}
	if len(sv.Nonce) != nonceSize {
		return "", fmt.Errorf("invalid sealed value: bad nonce length %d", len(sv.Nonce))
	}

	key := f.deriveKey(sv.Salt)
	defer zeroBytes(key[:])

	var nonce [nonceSize]byte
	copy(nonce[:], sv.Nonce)
	plaintext, ok := secretbox.Open(nil, sv.Data, &nonce, key)
	if !ok {
		return "", fmt.Errorf("failed to unseal value: wrong master key or corrupted data")
	}
	return string(plaintext), nil
}

func (f sealer) deriveKey(salt []byte) *[32]byte {
	derived := argon2.IDKey(f.masterKey, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)
	var key [32]byte
	copy(key[:], derived)
	zeroBytes(derived)
	return &key
}

// writeFileAtomic writes data to a temp file in the same directory and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
