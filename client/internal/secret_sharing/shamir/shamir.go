// Copyright 2022 Google LLC
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

// Package shamir implements t-of-n [Shamir Secret Sharing] (SSS) over GF(2^8),
// one polynomial per secret byte. SSS is based on the Lagrange interpolation
// theorem: `k` points uniquely determine a polynomial of degree at most `k - 1`.
//
// This scheme is secure under the following assumptions:
//   - A trusted dealer sees the secret and generates the shares.
//   - The adversary is passive: it may observe up to t-1 shares but does not
//     take part in reconstruction with a chosen share. Reconstruct does not
//     detect bogus shares; see https://crypto.stackexchange.com/q/41994/76875
//
// [Shamir Secret Sharing]: https://web.mit.edu/6.857/OldStuff/Fall03/ref/Shamir-HowToShareAsecrets.pdf
package shamir

import (
	"fmt"
	"io"

	"github.com/GoogleCloudPlatform/splitsecret/client/internal/secret_sharing/gf8"
	"github.com/GoogleCloudPlatform/splitsecret/client/internal/secret_sharing/secrets"
)

// SplitSecret splits secret into policy.NumShares shares, any policy.Threshold
// of which reconstruct it. Share i (0-based) is evaluated at x = i+1.
// Polynomial coefficients are read from rand.
func SplitSecret(policy secrets.Policy, secret []byte, rand io.Reader) ([]secrets.Share, error) {
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret must not be empty")
	}

	shares := make([]secrets.Share, policy.NumShares)
	for i := range shares {
		shares[i] = secrets.Share{X: i + 1, Value: make([]byte, len(secret))}
	}

	// Each byte of the secret is the constant term of its own polynomial:
	//   f(x) = secret[b] + R_1 * x + ... + R_(t-1) * x^(t-1)
	// shares[i].Value[b] = f_b(i + 1).
	coefficients := make([]gf8.Element, policy.Threshold)
	defer clear(coefficients)
	for b, s := range secret {
		coefficients[0] = gf8.Element(s)
		for c := 1; c < len(coefficients); c++ {
			var err error
			if coefficients[c], err = gf8.Random(rand); err != nil {
				return nil, err
			}
		}
		for i := range shares {
			shares[i].Value[b] = byte(evaluatePolynomial(coefficients, gf8.Element(shares[i].X)))
		}
	}
	return shares, nil
}

// evaluatePolynomial computes c[0] + c[1]*x + ... + c[n-1]*x^(n-1) with Horner's rule.
func evaluatePolynomial(coefficients []gf8.Element, x gf8.Element) gf8.Element {
	var sum gf8.Element
	for i := len(coefficients) - 1; i > 0; i-- {
		sum = sum.Add(coefficients[i]).Multiply(x)
	}
	return sum.Add(coefficients[0])
}

// Reconstruct interpolates every supplied share at x = 0 and returns the result.
//
// All shares are used. If fewer shares than the original threshold are given,
// the output is a well-defined but wrong value; Reconstruct cannot tell.
func Reconstruct(shares []secrets.Share) ([]byte, error) {
	if len(shares) < 2 {
		return nil, fmt.Errorf("at least 2 shares are required, got %d", len(shares))
	}
	secretLen := len(shares[0].Value)
	xVals := make([]gf8.Element, len(shares))
	for i, s := range shares {
		if s.X < 1 || s.X > secrets.MaxShares {
			return nil, fmt.Errorf("share %d has invalid x coordinate %d", i, s.X)
		}
		if len(s.Value) != secretLen {
			return nil, fmt.Errorf("share %d has length %d, want %d", i, len(s.Value), secretLen)
		}
		xVals[i] = gf8.Element(s.X)
	}
	if secretLen == 0 {
		return nil, fmt.Errorf("shares are empty")
	}

	// The coefficients only depend on the x coordinates, so they are shared by
	// every byte position.
	lagrange, err := lagrangeCoefficients(xVals)
	if err != nil {
		return nil, err
	}

	secret := make([]byte, secretLen)
	for b := range secret {
		// ∑i y[i] * lagrange[i]
		var sum gf8.Element
		for i, s := range shares {
			sum = sum.Add(gf8.Element(s.Value[b]).Multiply(lagrange[i]))
		}
		secret[b] = byte(sum)
	}
	return secret, nil
}

// lagrangeCoefficients returns the basis polynomials evaluated at zero:
// ∏j≠i x[j] / (x[j] - x[i]).
func lagrangeCoefficients(x []gf8.Element) ([]gf8.Element, error) {
	out := make([]gf8.Element, len(x))
	for i := range x {
		out[i] = 1
		for j := range x {
			if i == j {
				continue
			}
			if x[i] == x[j] {
				return nil, fmt.Errorf("duplicate x coordinate %d", x[i])
			}
			term, err := x[j].Divide(x[j].Subtract(x[i]))
			if err != nil {
				return nil, err
			}
			out[i] = out[i].Multiply(term)
		}
	}
	return out, nil
}

func validatePolicy(policy secrets.Policy) error {
	if policy.Threshold < 2 {
		return fmt.Errorf("threshold must be at least 2, got %d", policy.Threshold)
	}
	if policy.Threshold > policy.NumShares {
		return fmt.Errorf("threshold (%d) must not exceed the number of shares (%d)", policy.Threshold, policy.NumShares)
	}
	if policy.NumShares > secrets.MaxShares {
		return fmt.Errorf("at most %d shares are supported, got %d", secrets.MaxShares, policy.NumShares)
	}
	return nil
}
