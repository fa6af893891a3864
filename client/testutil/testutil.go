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

// Package testutil contains utilities for unit tests.
package testutil

var (
	// HelloWorld is the end-to-end example secret.
	HelloWorld = "hello world"

	// Secrets is a set of plaintexts exercising empty, ASCII, multi-byte and
	// multi-line UTF-8 input.
	Secrets = []string{
		"",
		"a",
		HelloWorld,
		"correct horse battery staple",
		"秘密共享 Offline-First",
		"line one\nline two\r\n\ttabbed",
		"🔐🗝️ emoji and combining marks: é ñ",
	}
)

// FlipBit returns a copy of b with bit `bit` (counting from the MSB of b[0]) inverted.
func FlipBit(b []byte, bit int) []byte {
	out := append([]byte{}, b...)
	out[bit/8] ^= 0x80 >> (bit % 8)
	return out
}

// Combinations returns every k-element subset of {0, ..., n-1}, each in ascending order.
func Combinations(n, k int) [][]int {
	var out [][]int
	current := make([]int, 0, k)

	var walk func(start int)
	walk = func(start int) {
		if len(current) == k {
			out = append(out, append([]int{}, current...))
			return
		}
		for i := start; i <= n-(k-len(current)); i++ {
			current = append(current, i)
			walk(i + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)

	return out
}
