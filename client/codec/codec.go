// Copyright 2026 Google LLC
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

// Package codec converts shares and blobs to and from their portable text forms.
//
// A share line is "<index>:<hex(value)>", with a decimal index and lower-case
// hex. A blob is a compact JSON record whose fields are standard base64:
//
//	{"nonce":"...","tag":"...","ciphertext":"..."}
//
// Both formats are shared with other implementations of the protocol, so the
// field names, their order, and the share framing must not change.
package codec

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/GoogleCloudPlatform/splitsecret/client/aead"
	"github.com/GoogleCloudPlatform/splitsecret/client/errdefs"
	"github.com/GoogleCloudPlatform/splitsecret/client/shares"
)

// EncodeShare renders s as "<index>:<hex>".
func EncodeShare(s shares.Share) string {
	return strconv.Itoa(s.Index) + ":" + hex.EncodeToString(s.Value)
}

// DecodeShare parses a share line. Surrounding whitespace is ignored. A line
// without a colon is bare hex and yields a Share with Index 0, which must be
// given an index (see DecodeShareWithIndex) before it can be combined.
func DecodeShare(line string) (shares.Share, error) {
	t := strings.TrimSpace(line)
	if t == "" {
		return shares.Share{}, errdefs.MalformedShare("share is empty")
	}

	var index int
	hexPart := t
	if i := strings.IndexByte(t, ':'); i >= 0 {
		var err error
		if index, err = parseIndex(strings.TrimSpace(t[:i])); err != nil {
			return shares.Share{}, err
		}
		hexPart = strings.TrimSpace(t[i+1:])
	}

	if hexPart == "" {
		return shares.Share{}, errdefs.MalformedShare("share has no value")
	}
	value, err := hex.DecodeString(hexPart)
	if err != nil {
		return shares.Share{}, errdefs.MalformedShare("share value is not valid hex: %v", err)
	}

	return shares.Share{Index: index, Value: value}, nil
}

// DecodeShareWithIndex parses a share line and assigns it index when the line
// carries none. An explicit index that disagrees with index is an error.
func DecodeShareWithIndex(line string, index int) (shares.Share, error) {
	if index < 1 || index > shares.MaxShares {
		return shares.Share{}, errdefs.MalformedShare("index %d out of range 1..%d", index, shares.MaxShares)
	}
	s, err := DecodeShare(line)
	if err != nil {
		return shares.Share{}, err
	}
	switch s.Index {
	case 0:
		s.Index = index
	case index:
	default:
		return shares.Share{}, errdefs.MalformedShare("share is labelled %d but was assigned index %d", s.Index, index)
	}
	return s, nil
}

// ParseShareLines decodes every non-blank line. Blank lines are skipped.
func ParseShareLines(lines []string) ([]shares.Share, error) {
	out := make([]shares.Share, 0, len(lines))
	for n, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := DecodeShare(line)
		if err != nil {
			return nil, errdefs.MalformedShare("line %d: %v", n+1, trimKind(err))
		}
		out = append(out, s)
	}
	return out, nil
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, errdefs.MalformedShare("share index is empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errdefs.MalformedShare("share index %q is not a decimal number", s)
		}
	}
	index, err := strconv.Atoi(s)
	if err != nil || index < 1 || index > shares.MaxShares {
		return 0, errdefs.MalformedShare("share index %s out of range 1..%d", s, shares.MaxShares)
	}
	return index, nil
}

// trimKind strips the "malformed share: " prefix so re-wrapped errors do not repeat it.
func trimKind(err error) string {
	return strings.TrimPrefix(err.Error(), errdefs.ErrMalformedShare.Error()+": ")
}

// blobRecord is the wire form of aead.Blob. Field order is part of the format.
type blobRecord struct {
	Nonce      *string `json:"nonce"`
	Tag        *string `json:"tag"`
	Ciphertext *string `json:"ciphertext"`
}

// EncodeBlob renders b as a compact JSON record.
func EncodeBlob(b *aead.Blob) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	nonce := base64.StdEncoding.EncodeToString(b.Nonce)
	tag := base64.StdEncoding.EncodeToString(b.Tag)
	ciphertext := base64.StdEncoding.EncodeToString(b.Ciphertext)

	out, err := json.Marshal(blobRecord{Nonce: &nonce, Tag: &tag, Ciphertext: &ciphertext})
	if err != nil {
		return "", errdefs.MalformedBlob("encoding blob: %v", err)
	}
	return string(out), nil
}

// DecodeBlob parses a JSON blob record produced by EncodeBlob or a compatible implementation.
func DecodeBlob(s string) (*aead.Blob, error) {
	var rec blobRecord
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &rec); err != nil {
		return nil, errdefs.MalformedBlob("blob is not a JSON record: %v", err)
	}

	b := &aead.Blob{}
	for _, f := range []struct {
		name string
		val  *string
		dst  *[]byte
	}{
		{name: "nonce", val: rec.Nonce, dst: &b.Nonce},
		{name: "tag", val: rec.Tag, dst: &b.Tag},
		{name: "ciphertext", val: rec.Ciphertext, dst: &b.Ciphertext},
	} {
		if f.val == nil {
			return nil, errdefs.MalformedBlob("missing field %q", f.name)
		}
		decoded, err := base64.StdEncoding.DecodeString(*f.val)
		if err != nil {
			return nil, errdefs.MalformedBlob("field %q is not valid base64: %v", f.name, err)
		}
		*f.dst = decoded
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
