// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"sort"

	"github.com/samber/oops"
)

// MinSecretLength is the shortest HMAC secret accepted, in bytes.
const MinSecretLength = 32

// KeySet holds the HMAC signing keys. It is built once at startup and never
// mutated.
//
// The active key signs new tokens. Its id (the key epoch) is written to the
// token header as "kid" when non-empty. Previous keys only verify, so rotating
// the active key does not invalidate tokens signed under an earlier epoch that
// is still configured.
type KeySet struct {
	activeID string
	keys     map[string][]byte
}

// NewKeySet validates and copies the key material.
func NewKeySet(activeID string, active []byte, previous map[string][]byte) (*KeySet, error) {
	if len(active) < MinSecretLength {
		return nil, oops.Code("KEYSET_INVALID").
			With("key_id", activeID).
			Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}

	ks := &KeySet{
		activeID: activeID,
		keys:     make(map[string][]byte, len(previous)+1),
	}
	ks.keys[activeID] = append([]byte(nil), active...)

	for id, secret := range previous {
		if id == "" {
			return nil, oops.Code("KEYSET_INVALID").Errorf("previous keys need a non-empty id")
		}
		if id == activeID {
			return nil, oops.Code("KEYSET_INVALID").
				With("key_id", id).
				Errorf("previous key id collides with the active key id")
		}
		if len(secret) < MinSecretLength {
			return nil, oops.Code("KEYSET_INVALID").
				With("key_id", id).
				Errorf("signing secret must be at least %d bytes", MinSecretLength)
		}
		ks.keys[id] = append([]byte(nil), secret...)
	}
	return ks, nil
}

// ActiveID returns the id of the signing key.
func (k *KeySet) ActiveID() string {
	return k.activeID
}

// IDs returns every configured key id, sorted.
func (k *KeySet) IDs() []string {
	ids := make([]string, 0, len(k.keys))
	for id := range k.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (k *KeySet) signingKey() []byte {
	return k.keys[k.activeID]
}

func (k *KeySet) lookup(id string) ([]byte, bool) {
	key, ok := k.keys[id]
	return key, ok
}
