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

// Package gf8 implements arithmetic in the field with characteristic 2^8 (GF(2^8)),
// reduced by the AES polynomial x^8 + x^4 + x^3 + x + 1.
package gf8

import (
	"fmt"
	"io"
)

// Element is a single element of GF(2^8).
type Element byte

// irreducible polynomial (x^8 + x^4 + x^3 + x + 1) = {0x01 0x1B}.
// Elements are uint8, so only the low byte is needed.
const irreduciblePolynomial = 0x1B

// Add returns e + a. Addition and subtraction are both xor in GF(2^8).
func (e Element) Add(a Element) Element {
	return e ^ a
}

// Subtract returns e - a.
func (e Element) Subtract(a Element) Element {
	return e ^ a
}

// Multiply returns e * a.
func (e Element) Multiply(a Element) Element {
	// Tables and branches are avoided to limit timing and cache side channels.
	x := byte(e)
	y := byte(a)

	var product uint8

	// Negating a 0/1 bit yields an all-zero or all-one mask, which stands in
	// for the conditional in schoolbook carry-less multiplication.
	// https://en.wikipedia.org/wiki/Finite_field_arithmetic#Multiplication
	for i := 7; i >= 0; i-- {
		// Reduce by the polynomial if the product's MSB is about to shift out.
		mod := (-(product >> 7)) & irreduciblePolynomial
		xiTimesY := -((x >> i) & 1) & y
		product = xiTimesY ^ mod ^ (product << 1)
	}
	return Element(product)
}

// Inverse returns the multiplicative inverse of e, or an error if e is zero.
func (e Element) Inverse() (Element, error) {
	if e == 0 {
		return 0, fmt.Errorf("inverse of zero is not defined")
	}
	// e^-1 == e^254 in GF(2^8). Addition chain from
	// https://crypto.stackexchange.com/a/40140
	b := e.Multiply(e) // e^2
	c := e.Multiply(b) // e^3

	b = c.Multiply(c)         // e^6
	b = b.Multiply(b)         // e^12
	c = b.Multiply(c)         // e^15
	b = b.Multiply(b)         // e^24
	b = b.Multiply(b)         // e^48
	b = b.Multiply(c)         // e^63
	b = b.Multiply(b)         // e^126
	b = e.Multiply(b)         // e^127
	return b.Multiply(b), nil // e^254
}

// Divide returns e / a, or an error if a is zero.
func (e Element) Divide(a Element) (Element, error) {
	inv, err := a.Inverse()
	if err != nil {
		return 0, err
	}
	return e.Multiply(inv), nil
}

// FromInt converts i to a field element. Values outside [0, 255] are rejected.
func FromInt(i int) (Element, error) {
	if i < 0 || i > 255 {
		return 0, fmt.Errorf("%d is not an element of GF(2^8)", i)
	}
	return Element(i), nil
}

// Random reads one uniformly distributed element (zero included) from r.
func Random(r io.Reader) (Element, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("reading random field element: %v", err)
	}
	return Element(b[0]), nil
}
