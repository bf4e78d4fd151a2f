// Package auth provides API key storage and validation.
//
// Keys are loaded from a text file or from a comma-separated environment
// variable. Each file line holds a key optionally followed by whitespace and
// a comma-separated role list:
//
//	sk-admin admin,ops
//	sk-reader
//
// Lines starting with # are treated as comments. Empty lines are ignored.
package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrInvalidKey is returned when an API key is not recognized.
var ErrInvalidKey = errors.New("invalid api key")

// KeyStore validates API keys against a set of known keys.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string][]string // key -> roles
}

// NewKeyStore creates a KeyStore and loads keys from the given file path.
// If the MACROFX_API_KEYS environment variable is set, those keys take
// precedence over the file. Keys from the environment carry no roles.
func NewKeyStore(path string) (*KeyStore, error) {
	ks := &KeyStore{keys: make(map[string][]string)}

	if env := os.Getenv("MACROFX_API_KEYS"); env != "" {
		for _, k := range strings.Split(env, ",") {
			if key := strings.TrimSpace(k); key != "" {
				ks.keys[key] = nil
			}
		}
		if len(ks.keys) == 0 {
			return nil, errors.New("MACROFX_API_KEYS is set but contains no valid keys")
		}
		return ks, nil
	}

	if path == "" {
		return nil, errors.New("no keys file path provided and MACROFX_API_KEYS is not set")
	}

	if err := ks.loadFile(path); err != nil {
		return nil, fmt.Errorf("load keys file: %w", err)
	}

	if len(ks.keys) == 0 {
		return nil, fmt.Errorf("keys file %q contains no valid keys", path)
	}

	return ks, nil
}

// Validate checks whether the given key is authorized.
func (ks *KeyStore) Validate(key string) error {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if _, ok := ks.keys[key]; !ok {
		return ErrInvalidKey
	}
	return nil
}

// Roles returns the roles granted to key, or nil for an unknown key.
func (ks *KeyStore) Roles(key string) []string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return append([]string(nil), ks.keys[key]...)
}

// Count returns the number of loaded keys.
func (ks *KeyStore) Count() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}

// loadFile reads keys from a text file, one per line.
func (ks *KeyStore) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		var roles []string
		if len(fields) > 1 {
			for _, r := range strings.Split(fields[1], ",") {
				if r = strings.TrimSpace(r); r != "" {
					roles = append(roles, r)
				}
			}
		}
		ks.keys[fields[0]] = roles
	}
	return scanner.Err()
}
