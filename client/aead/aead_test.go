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

package aead

import (
	"bytes"
	"errors"
	"testing"

	"github.com/GoogleCloudPlatform/splitsecret/client/errdefs"
	"github.com/GoogleCloudPlatform/splitsecret/client/shares"
	"github.com/GoogleCloudPlatform/splitsecret/client/testutil"
)

func TestEncryptAndDecrypt(t *testing.T) {
	for _, tc := range []struct {
		name      string
		plaintext []byte
	}{
		{name: "empty", plaintext: []byte{}},
		{name: "short", plaintext: []byte("Plaintext for testing only.")},
		{name: "multibyte", plaintext: []byte("秘密共享 🔐")},
		{name: "large", plaintext: bytes.Repeat([]byte{0xa5}, 1<<16)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			key := shares.NewSessionKey()

			blob, err := Encrypt(key, tc.plaintext)
			if err != nil {
				t.Fatalf("Encrypt failed with error %v", err)
			}
			if len(blob.Nonce) != NonceSize {
				t.Errorf("len(Nonce) = %d, want %d", len(blob.Nonce), NonceSize)
			}
			if len(blob.Tag) != TagSize {
				t.Errorf("len(Tag) = %d, want %d", len(blob.Tag), TagSize)
			}
			if len(blob.Ciphertext) != len(tc.plaintext) {
				t.Errorf("len(Ciphertext) = %d, want %d", len(blob.Ciphertext), len(tc.plaintext))
			}

			got, err := Decrypt(key, blob)
			if err != nil {
				t.Fatalf("Decrypt failed with error %v", err)
			}
			if !bytes.Equal(got, tc.plaintext) {
				t.Errorf("Encrypt and Decrypt workflow does not restore original plaintext. Got %q, want %q", got, tc.plaintext)
			}
		})
	}
}

func TestDecryptFailsForWrongKey(t *testing.T) {
	blob, err := Encrypt(shares.NewSessionKey(), []byte("Plaintext for testing only."))
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decrypt(shares.NewSessionKey(), blob)
	if !errors.Is(err, errdefs.ErrAuthentication) {
		t.Errorf("Decrypt with wrong key err = %v, want %v", err, errdefs.ErrAuthentication)
	}
	if got != nil {
		t.Errorf("Decrypt with wrong key returned %q, want nil", got)
	}
}

func TestDecryptDetectsEveryBitFlip(t *testing.T) {
	key := shares.NewSessionKey()
	blob, err := Encrypt(key, []byte("hello world"))
	if err != nil {
		t.Fatal(err)
	}

	fields := map[string]func(b *Blob) *[]byte{
		"nonce":      func(b *Blob) *[]byte { return &b.Nonce },
		"tag":        func(b *Blob) *[]byte { return &b.Tag },
		"ciphertext": func(b *Blob) *[]byte { return &b.Ciphertext },
	}
	for name, field := range fields {
		original := *field(blob)
		for bit := 0; bit < len(original)*8; bit++ {
			tampered := &Blob{Nonce: blob.Nonce, Tag: blob.Tag, Ciphertext: blob.Ciphertext}
			*field(tampered) = testutil.FlipBit(original, bit)

			got, err := Decrypt(key, tampered)
			if !errors.Is(err, errdefs.ErrAuthentication) {
				t.Fatalf("Decrypt with %s bit %d flipped: err = %v, want %v", name, bit, err, errdefs.ErrAuthentication)
			}
			if got != nil {
				t.Fatalf("Decrypt with %s bit %d flipped returned %q, want nil", name, bit, got)
			}
		}
	}
}

func TestNoncesAreUnique(t *testing.T) {
	key := shares.NewSessionKey()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		blob, err := Encrypt(key, []byte("same plaintext"))
		if err != nil {
			t.Fatal(err)
		}
		if seen[string(blob.Nonce)] {
			t.Fatalf("nonce %x repeated after %d encryptions", blob.Nonce, i)
		}
		seen[string(blob.Nonce)] = true
	}
}

func TestDecryptRejectsMalformedBlob(t *testing.T) {
	key := shares.NewSessionKey()
	blob, err := Encrypt(key, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name string
		blob *Blob
	}{
		{name: "nil", blob: nil},
		{name: "short nonce", blob: &Blob{Nonce: blob.Nonce[:11], Tag: blob.Tag, Ciphertext: blob.Ciphertext}},
		{name: "long tag", blob: &Blob{Nonce: blob.Nonce, Tag: append(append([]byte{}, blob.Tag...), 0), Ciphertext: blob.Ciphertext}},
		{name: "missing tag", blob: &Blob{Nonce: blob.Nonce, Ciphertext: blob.Ciphertext}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decrypt(key, tc.blob); !errors.Is(err, errdefs.ErrMalformedBlob) {
				t.Errorf("Decrypt() err = %v, want %v", err, errdefs.ErrMalformedBlob)
			}
		})
	}
}
