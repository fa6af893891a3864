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

// Package client splits a secret text into threshold shares plus an encrypted
// blob, and combines them back.
//
// Split generates a fresh session key, encrypts the secret under it with
// AES-GCM, and splits the key with Shamir secret sharing over GF(2^8). Only the
// shares and the blob leave the operation; the key is wiped before returning.
package client

import (
	"context"
	"fmt"

	"github.com/GoogleCloudPlatform/splitsecret/client/aead"
	"github.com/GoogleCloudPlatform/splitsecret/client/codec"
	"github.com/GoogleCloudPlatform/splitsecret/client/errdefs"
	"github.com/GoogleCloudPlatform/splitsecret/client/shares"
	glog "github.com/golang/glog"
)

// SplitResult holds the text artifacts of a split.
type SplitResult struct {
	// Shares are "<index>:<hex>" lines, one per share, in index order.
	Shares []string
	// Blob is the JSON record of the encrypted secret.
	Blob string
}

// Splitter provides the split and combine operations. It holds no state, so
// one Splitter may serve any number of concurrent requests.
type Splitter struct{}

// ValidatePolicy reports an errdefs.ErrPolicy error unless 2 <= threshold <= total <= 255.
// Callers are expected to check user input with it before calling Split.
func ValidatePolicy(threshold, total int) error {
	return shares.ValidatePolicy(threshold, total)
}

// Split encrypts secret under a fresh session key and splits the key into
// `total` shares, any `threshold` of which recover the secret.
func (s *Splitter) Split(ctx context.Context, secret string, threshold, total int) (*SplitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("split not started: %w", err)
	}

	key := shares.NewSessionKey()
	defer key.Wipe()

	plaintext := []byte(secret)
	blob, err := aead.Encrypt(key, plaintext)
	clear(plaintext)
	if err != nil {
		return nil, fmt.Errorf("error encrypting secret: %w", err)
	}

	keyShares, err := shares.SplitShares(key, total, threshold)
	if err != nil {
		return nil, fmt.Errorf("error splitting session key: %w", err)
	}

	encodedBlob, err := codec.EncodeBlob(blob)
	if err != nil {
		return nil, fmt.Errorf("error encoding blob: %w", err)
	}

	result := &SplitResult{
		Shares: make([]string, 0, len(keyShares)),
		Blob:   encodedBlob,
	}
	for _, share := range keyShares {
		result.Shares = append(result.Shares, codec.EncodeShare(share))
		clear(share.Value)
	}

	glog.V(1).Infof("Split %d byte secret into %d shares with threshold %d", len(secret), total, threshold)
	return result, nil
}

// CombineOption configures Combine.
type CombineOption func(*combineOptions)

type combineOptions struct {
	bareIndices []int
}

// WithShareIndices supplies indices for share lines written as bare hex, in
// the order those lines appear. Lines with an explicit "<index>:" prefix do
// not consume an index.
func WithShareIndices(indices ...int) CombineOption {
	return func(o *combineOptions) {
		o.bareIndices = append(o.bareIndices, indices...)
	}
}

// Combine reconstructs the session key from shareLines and decrypts blob with it.
// Blank lines are ignored. At least two shares are required; fewer than the
// original threshold fails with errdefs.ErrAuthentication.
func (s *Splitter) Combine(ctx context.Context, shareLines []string, blob string, opts ...CombineOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("combine not started: %w", err)
	}

	o := &combineOptions{}
	for _, opt := range opts {
		opt(o)
	}

	parsed, err := codec.ParseShareLines(shareLines)
	if err != nil {
		return "", err
	}
	if len(parsed) < errdefs.MinShares {
		return "", errdefs.InsufficientShares(len(parsed))
	}
	if err := assignIndices(parsed, o.bareIndices); err != nil {
		return "", err
	}

	decodedBlob, err := codec.DecodeBlob(blob)
	if err != nil {
		return "", err
	}

	key, err := shares.CombineShares(parsed)
	if err != nil {
		return "", err
	}
	defer key.Wipe()

	plaintext, err := aead.Decrypt(key, decodedBlob)
	if err != nil {
		return "", err
	}

	glog.V(1).Infof("Combined %d shares into %d byte secret", len(parsed), len(plaintext))
	return string(plaintext), nil
}

// assignIndices gives each bare share the next caller-supplied index.
func assignIndices(parsed []shares.Share, indices []int) error {
	next := 0
	for i := range parsed {
		if parsed[i].Index != 0 {
			continue
		}
		if next >= len(indices) {
			return errdefs.MalformedShare("share %d has no index; supply one with WithShareIndices", i+1)
		}
		idx := indices[next]
		if idx < 1 || idx > shares.MaxShares {
			return errdefs.MalformedShare("supplied index %d out of range 1..%d", idx, shares.MaxShares)
		}
		parsed[i].Index = idx
		next++
	}
	if next != len(indices) {
		return errdefs.MalformedShare("%d indices supplied for %d bare shares", len(indices), next)
	}
	return nil
}
