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

// Binary to run against a server to validate protocol conformance.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"flag"
	"github.com/GoogleCloudPlatform/splitsecret/client/codec"
	"github.com/GoogleCloudPlatform/splitsecret/constants"
	"github.com/GoogleCloudPlatform/splitsecret/server"
	"github.com/alecthomas/colour"
)

var (
	serverURL = flag.String("server-url", fmt.Sprintf("http://localhost:%d", constants.HTTPPort), "Base URL of a running splitsecret server")
	samples   = flag.Int("nonce-samples", 50, "Number of splits used to check nonce uniqueness")
)

type conformanceClient struct {
	baseURL string
	http    *http.Client
}

// apiError is a non-2xx response from the server.
type apiError struct {
	status int
	body   server.ErrorResponse
}

func (e *apiError) Error() string {
	return fmt.Sprintf("HTTP %d (%s): %s", e.status, e.body.Kind, e.body.Error)
}

func (c *conformanceClient) post(endpoint string, req, resp any) error {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpResp, err := c.http.Post(c.baseURL+endpoint, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return err
	}
	if httpResp.StatusCode != http.StatusOK {
		e := &apiError{status: httpResp.StatusCode}
		if err := json.Unmarshal(respBody, &e.body); err != nil {
			return fmt.Errorf("HTTP %d with unparsable body %q", httpResp.StatusCode, respBody)
		}
		return e
	}
	return json.Unmarshal(respBody, resp)
}

func (c *conformanceClient) split(secret string, threshold, total int) (*server.SplitResponse, error) {
	resp := &server.SplitResponse{}
	if err := c.post(constants.SplitEndpoint, &server.SplitRequest{Secret: secret, Threshold: threshold, Total: total}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *conformanceClient) combine(req *server.CombineRequest) (string, error) {
	resp := &server.CombineResponse{}
	if err := c.post(constants.CombineEndpoint, req, resp); err != nil {
		return "", err
	}
	return resp.Secret, nil
}

// expectKind checks that err is an apiError with the given status and kind.
func expectKind(err error, status int, kind string) error {
	e, ok := err.(*apiError)
	if !ok {
		return fmt.Errorf("want HTTP %d %s, got %v", status, kind, err)
	}
	if e.status != status || e.body.Kind != kind {
		return fmt.Errorf("want HTTP %d %s, got %v", status, kind, e)
	}
	return nil
}

func bare(line string) string {
	return line[strings.IndexByte(line, ':')+1:]
}

type conformanceTest struct {
	testName string
	run      func(c *conformanceClient) error
}

var conformanceTests = []conformanceTest{
	{
		testName: "2-of-3 split of \"hello world\" combines from shares #1 and #3",
		run: func(c *conformanceClient) error {
			res, err := c.split("hello world", 2, 3)
			if err != nil {
				return err
			}
			got, err := c.combine(&server.CombineRequest{Shares: []string{res.Shares[0], res.Shares[2]}, Blob: res.Blob})
			if err != nil {
				return err
			}
			if got != "hello world" {
				return fmt.Errorf("combined %q", got)
			}
			return nil
		},
	},
	{
		testName: "Single share is rejected as insufficient",
		run: func(c *conformanceClient) error {
			res, err := c.split("hello world", 2, 3)
			if err != nil {
				return err
			}
			_, err = c.combine(&server.CombineRequest{Shares: res.Shares[:1], Blob: res.Blob})
			return expectKind(err, http.StatusBadRequest, "insufficient_shares")
		},
	},
	{
		testName: "Empty share list is rejected as insufficient",
		run: func(c *conformanceClient) error {
			res, err := c.split("hello world", 2, 3)
			if err != nil {
				return err
			}
			_, err = c.combine(&server.CombineRequest{Shares: []string{}, Blob: res.Blob})
			return expectKind(err, http.StatusBadRequest, "insufficient_shares")
		},
	},
	{
		testName: "Fewer shares than the threshold fail authentication",
		run: func(c *conformanceClient) error {
			res, err := c.split("below threshold", 3, 5)
			if err != nil {
				return err
			}
			_, err = c.combine(&server.CombineRequest{Shares: res.Shares[3:], Blob: res.Blob})
			return expectKind(err, http.StatusUnprocessableEntity, "authentication")
		},
	},
	{
		testName: "Flipped ciphertext bit fails authentication",
		run: func(c *conformanceClient) error {
			res, err := c.split("tamper", 2, 2)
			if err != nil {
				return err
			}
			blob, err := codec.DecodeBlob(res.Blob)
			if err != nil {
				return err
			}
			blob.Ciphertext[0] ^= 0x01
			tampered, err := codec.EncodeBlob(blob)
			if err != nil {
				return err
			}
			_, err = c.combine(&server.CombineRequest{Shares: res.Shares, Blob: tampered})
			return expectKind(err, http.StatusUnprocessableEntity, "authentication")
		},
	},
	{
		testName: "Nonces do not repeat across splits",
		run: func(c *conformanceClient) error {
			seen := make(map[string]bool)
			for i := 0; i < *samples; i++ {
				res, err := c.split("same secret", 2, 2)
				if err != nil {
					return err
				}
				blob, err := codec.DecodeBlob(res.Blob)
				if err != nil {
					return err
				}
				if seen[string(blob.Nonce)] {
					return fmt.Errorf("nonce repeated after %d splits", i)
				}
				seen[string(blob.Nonce)] = true
			}
			return nil
		},
	},
	{
		testName: "Blob fields are nonce, tag, ciphertext in order and shares are \"<index>:<hex>\"",
		run: func(c *conformanceClient) error {
			res, err := c.split("format", 2, 3)
			if err != nil {
				return err
			}
			if !strings.HasPrefix(res.Blob, `{"nonce":"`) || strings.Index(res.Blob, `"tag":`) > strings.Index(res.Blob, `"ciphertext":`) {
				return fmt.Errorf("unexpected blob layout %s", res.Blob)
			}
			for i, line := range res.Shares {
				s, err := codec.DecodeShare(line)
				if err != nil {
					return err
				}
				if s.Index != i+1 || line != codec.EncodeShare(s) {
					return fmt.Errorf("share %d is not canonical: %q", i+1, line)
				}
			}
			return nil
		},
	},
	{
		testName: "Malformed share \"zz:nothex\" is rejected",
		run: func(c *conformanceClient) error {
			res, err := c.split("hello world", 2, 3)
			if err != nil {
				return err
			}
			_, err = c.combine(&server.CombineRequest{Shares: []string{"zz:nothex", res.Shares[1]}, Blob: res.Blob})
			return expectKind(err, http.StatusBadRequest, "malformed_share")
		},
	},
	{
		testName: "Bare hex shares combine only with explicit indices",
		run: func(c *conformanceClient) error {
			res, err := c.split("bare", 2, 3)
			if err != nil {
				return err
			}
			shares := []string{bare(res.Shares[0]), bare(res.Shares[2])}
			_, err = c.combine(&server.CombineRequest{Shares: shares, Blob: res.Blob})
			if err := expectKind(err, http.StatusBadRequest, "malformed_share"); err != nil {
				return err
			}
			got, err := c.combine(&server.CombineRequest{Shares: shares, Blob: res.Blob, Indices: []int{1, 3}})
			if err != nil {
				return err
			}
			if got != "bare" {
				return fmt.Errorf("combined %q", got)
			}
			return nil
		},
	},
	{
		testName: "Invalid policy 1-of-3 is rejected",
		run: func(c *conformanceClient) error {
			_, err := c.split("x", 1, 3)
			return expectKind(err, http.StatusBadRequest, "policy")
		},
	},
	{
		testName: "Share label conflicting with a supplied index is rejected",
		run: func(*conformanceClient) error {
			if _, err := codec.DecodeShareWithIndex("2:00112233445566778899aabbccddeeff", 3); err == nil {
				return fmt.Errorf("conflicting label accepted")
			}
			return nil
		},
	},
}

func main() {
	flag.Parse()

	c := &conformanceClient{
		baseURL: strings.TrimSuffix(*serverURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	fmt.Printf("Running conformance tests against %s...\n", c.baseURL)
	failed := 0
	for _, testCase := range conformanceTests {
		if err := testCase.run(c); err != nil {
			failed++
			colour.Printf("^1 - %v: %v^R\n", testCase.testName, err)
		} else {
			colour.Printf("^2 - %v^R\n", testCase.testName)
		}
	}

	if failed > 0 {
		fmt.Printf("%d of %d tests failed\n", failed, len(conformanceTests))
		os.Exit(1)
	}
}
