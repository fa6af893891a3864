// Copyright 2024 Google LLC
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

// Package secrets contains types for secret sharing. A dealer splits a secret
// under a `Policy` and hands out the resulting `Share`s; any `Policy.Threshold`
// of them reconstruct it.
package secrets

// MaxShares is the largest number of shares a GF(2^8) polynomial can be
// evaluated at, since x = 0 is reserved for the secret itself.
const MaxShares = 255

// Policy is the K-of-N access structure chosen when splitting a secret.
type Policy struct {
	Threshold int
	NumShares int
}

// Share represents one evaluation point of the sharing polynomials.
// Value holds one field element per byte of the original secret.
type Share struct {
	X     int
	Value []byte
}
