// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shares splits a session key into threshold shares and combines them back.
package shares

import (
	"crypto/rand"
	"fmt"

	"github.com/GoogleCloudPlatform/splitsecret/client/errdefs"
	"github.com/GoogleCloudPlatform/splitsecret/client/internal/secret_sharing/secrets"
	"github.com/GoogleCloudPlatform/splitsecret/client/internal/secret_sharing/shamir"
	glog "github.com/golang/glog"
	"github.com/google/tink/go/subtle/random"
)

// SessionKeyBytes is the size of the session key in bytes.
const SessionKeyBytes uint32 = 16

// MaxShares is the largest total share count a split supports.
const MaxShares = secrets.MaxShares

// SessionKey is the per-operation symmetric key. Only its shares are ever stored.
type SessionKey [SessionKeyBytes]byte

// NewSessionKey randomly generates and returns a SessionKey.
func NewSessionKey() SessionKey {
	var key SessionKey
	copy(key[:], random.GetRandomBytes(SessionKeyBytes))

	return key
}

// Wipe zeroes the key in place.
func (k *SessionKey) Wipe() {
	clear(k[:])
}

// Share is one evaluation of the sharing polynomials. Index 0 means the index
// is not known yet (a bare hex share line) and must be assigned before combining.
type Share struct {
	Index int
	Value []byte
}

// ValidatePolicy checks 2 <= threshold <= total <= MaxShares.
func ValidatePolicy(threshold, total int) error {
	if threshold < 2 {
		return errdefs.Policy("threshold must be at least 2, got %d", threshold)
	}
	if threshold > total {
		return errdefs.Policy("threshold (%d) must not exceed total shares (%d)", threshold, total)
	}
	if total > MaxShares {
		return errdefs.Policy("at most %d shares are supported, got %d", MaxShares, total)
	}
	return nil
}

// SplitShares splits key into `total` shares, any `threshold` of which
// recombine to it. Shares are indexed 1..total.
func SplitShares(key SessionKey, total, threshold int) ([]Share, error) {
	if err := ValidatePolicy(threshold, total); err != nil {
		return nil, err
	}

	policy := secrets.Policy{Threshold: threshold, NumShares: total}
	split, err := shamir.SplitSecret(policy, key[:], rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("error splitting session key: %v", err)
	}

	out := make([]Share, 0, len(split))
	for _, s := range split {
		out = append(out, Share{Index: s.X, Value: s.Value})
	}
	glog.V(2).Infof("Split session key into %d shares with threshold %d", total, threshold)

	return out, nil
}

// CombineShares reconstitutes the session key from every supplied share. It
// does not check that the shares come from the same split or meet the original
// threshold: a wrong set yields a wrong key, which the cipher's tag rejects.
func CombineShares(in []Share) (SessionKey, error) {
	var key SessionKey
	if len(in) < errdefs.MinShares {
		return key, errdefs.InsufficientShares(len(in))
	}

	seen := make(map[int]bool, len(in))
	secretShares := make([]secrets.Share, 0, len(in))
	for i, s := range in {
		switch {
		case s.Index == 0:
			return key, errdefs.MalformedShare("share %d has no index", i+1)
		case s.Index < 0 || s.Index > MaxShares:
			return key, errdefs.MalformedShare("share %d has index %d, want 1..%d", i+1, s.Index, MaxShares)
		case seen[s.Index]:
			return key, errdefs.MalformedShare("index %d appears more than once", s.Index)
		case len(s.Value) != int(SessionKeyBytes):
			return key, errdefs.MalformedShare("share %d has %d bytes, want %d", i+1, len(s.Value), SessionKeyBytes)
		}
		seen[s.Index] = true
		secretShares = append(secretShares, secrets.Share{X: s.Index, Value: s.Value})
	}

	combined, err := shamir.Reconstruct(secretShares)
	if err != nil {
		return key, fmt.Errorf("error combining shares: %v", err)
	}
	copy(key[:], combined)
	clear(combined)

	return key, nil
}
