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

// Package aead encrypts and decrypts a secret under a session key with AES-128-GCM.
package aead

import (
	"fmt"

	"github.com/GoogleCloudPlatform/splitsecret/client/errdefs"
	"github.com/GoogleCloudPlatform/splitsecret/client/shares"
	"github.com/google/tink/go/aead/subtle"
)

const (
	// NonceSize is the size of the random GCM nonce in bytes.
	NonceSize = subtle.AESGCMIVSize
	// TagSize is the size of the GCM authentication tag in bytes.
	TagSize = subtle.AESGCMTagSize
)

// Blob is the output of one encryption. len(Ciphertext) equals the plaintext length.
type Blob struct {
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// Validate checks the fixed field sizes of b.
func (b *Blob) Validate() error {
	if b == nil {
		return errdefs.MalformedBlob("blob is nil")
	}
	if len(b.Nonce) != NonceSize {
		return errdefs.MalformedBlob("nonce has %d bytes, want %d", len(b.Nonce), NonceSize)
	}
	if len(b.Tag) != TagSize {
		return errdefs.MalformedBlob("tag has %d bytes, want %d", len(b.Tag), TagSize)
	}
	return nil
}

// Encrypt encrypts plaintext under key with a freshly generated nonce.
func Encrypt(key shares.SessionKey, plaintext []byte) (*Blob, error) {
	cipher, err := subtle.NewAESGCM(key[:])
	if err != nil {
		return nil, fmt.Errorf("unable to create new cipher: %v", err)
	}

	// Tink lays out the output as nonce || ciphertext || tag.
	out, err := cipher.Encrypt(plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to encrypt: %v", err)
	}
	if len(out) != NonceSize+len(plaintext)+TagSize {
		return nil, fmt.Errorf("cipher produced %d bytes, want %d", len(out), NonceSize+len(plaintext)+TagSize)
	}

	return &Blob{
		Nonce:      out[:NonceSize:NonceSize],
		Ciphertext: out[NonceSize : NonceSize+len(plaintext) : NonceSize+len(plaintext)],
		Tag:        out[NonceSize+len(plaintext):],
	}, nil
}

// Decrypt verifies the tag of blob under key and returns the plaintext.
// No plaintext is returned when verification fails.
func Decrypt(key shares.SessionKey, blob *Blob) ([]byte, error) {
	if err := blob.Validate(); err != nil {
		return nil, err
	}

	cipher, err := subtle.NewAESGCM(key[:])
	if err != nil {
		return nil, fmt.Errorf("unable to create new cipher: %v", err)
	}

	in := make([]byte, 0, NonceSize+len(blob.Ciphertext)+TagSize)
	in = append(in, blob.Nonce...)
	in = append(in, blob.Ciphertext...)
	in = append(in, blob.Tag...)

	plaintext, err := cipher.Decrypt(in, nil)
	if err != nil {
		return nil, errdefs.Authentication("tag does not verify: wrong shares or modified blob")
	}

	return plaintext, nil
}
