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

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flag"
	"github.com/GoogleCloudPlatform/splitsecret/client/errdefs"
	"github.com/GoogleCloudPlatform/splitsecret/client/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
)

func TestRunSplitCombine(t *testing.T) {
	ctx := context.Background()
	var shares, blob bytes.Buffer
	if err := runSplit(ctx, testutil.HelloWorld, 2, 3, &shares, &blob); err != nil {
		t.Fatalf("runSplit() failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(shares.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("runSplit() wrote %d share lines, want 3", len(lines))
	}

	var out bytes.Buffer
	subset := lines[0] + "\n\n" + lines[2] + "\n"
	if err := runCombine(ctx, subset, blob.String(), nil, &out); err != nil {
		t.Fatalf("runCombine() failed: %v", err)
	}
	if out.String() != testutil.HelloWorld {
		t.Errorf("runCombine() wrote %q, want %q", out.String(), testutil.HelloWorld)
	}

	out.Reset()
	err := runCombine(ctx, lines[0]+"\n", blob.String(), nil, &out)
	if !errors.Is(err, errdefs.ErrInsufficientShares) {
		t.Errorf("runCombine(one share) err = %v, want %v", err, errdefs.ErrInsufficientShares)
	}
	if out.Len() != 0 {
		t.Errorf("runCombine(one share) wrote %q, want nothing", out.String())
	}
}

func TestRunCombineBareShares(t *testing.T) {
	ctx := context.Background()
	var shares, blob bytes.Buffer
	if err := runSplit(ctx, testutil.HelloWorld, 2, 3, &shares, &blob); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(shares.String()), "\n")
	bare := lines[0][strings.IndexByte(lines[0], ':')+1:] + "\n" + lines[2][strings.IndexByte(lines[2], ':')+1:]

	var out bytes.Buffer
	if err := runCombine(ctx, bare, blob.String(), []int{1, 3}, &out); err != nil {
		t.Fatalf("runCombine(bare, [1 3]) failed: %v", err)
	}
	if out.String() != testutil.HelloWorld {
		t.Errorf("runCombine() wrote %q, want %q", out.String(), testutil.HelloWorld)
	}

	if err := runCombine(ctx, bare, blob.String(), nil, &out); !errors.Is(err, errdefs.ErrMalformedShare) {
		t.Errorf("runCombine(bare, no indices) err = %v, want %v", err, errdefs.ErrMalformedShare)
	}
}

func TestRunSplitRejectsPolicy(t *testing.T) {
	var shares, blob bytes.Buffer
	err := runSplit(context.Background(), "x", 3, 2, &shares, &blob)
	if !errors.Is(err, errdefs.ErrPolicy) {
		t.Errorf("runSplit(3 of 2) err = %v, want %v", err, errdefs.ErrPolicy)
	}
	if shares.Len() != 0 || blob.Len() != 0 {
		t.Errorf("runSplit(3 of 2) wrote output")
	}
}

func TestParseIndices(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []int
	}{
		{in: "", want: nil},
		{in: "  ", want: nil},
		{in: "1", want: []int{1}},
		{in: "1,3", want: []int{1, 3}},
		{in: " 2 , 5 ,255", want: []int{2, 5, 255}},
	} {
		got, err := parseIndices(tc.in)
		if err != nil {
			t.Fatalf("parseIndices(%q) failed: %v", tc.in, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("parseIndices(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}

	for _, in := range []string{"a", "1,,2", "1;2", "1,"} {
		if _, err := parseIndices(in); err == nil {
			t.Errorf("parseIndices(%q) succeeded, want error", in)
		}
	}
}

func TestSplitAndCombineCommandsWithFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "secret.txt")
	sharesPath := filepath.Join(dir, "shares.txt")
	blobPath := filepath.Join(dir, "blob.json")
	outPath := filepath.Join(dir, "recovered.txt")
	configPath := filepath.Join(dir, "splitsecret.yaml")

	if err := os.WriteFile(secretPath, []byte("file secret"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configPath, []byte("defaultThreshold: 3\ndefaultTotal: 4\n"), 0600); err != nil {
		t.Fatal(err)
	}

	split := &splitCmd{}
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	split.SetFlags(fs)
	if err := fs.Parse([]string{"--config-file=" + configPath, "--shares-out=" + sharesPath, "--quiet", secretPath, blobPath}); err != nil {
		t.Fatal(err)
	}
	if got := split.Execute(ctx, fs); got != subcommands.ExitSuccess {
		t.Fatalf("split Execute() = %v, want success", got)
	}

	sharesBytes, err := os.ReadFile(sharesPath)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(sharesBytes)), "\n"); len(lines) != 4 {
		t.Errorf("split wrote %d shares, want 4 from the config defaults", len(lines))
	}
	info, err := os.Stat(sharesPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Errorf("shares file mode = %v, want no group or other access", perm)
	}

	combine := &combineCmd{}
	fs = flag.NewFlagSet("combine", flag.ContinueOnError)
	combine.SetFlags(fs)
	if err := fs.Parse([]string{"--quiet", sharesPath, blobPath, outPath}); err != nil {
		t.Fatal(err)
	}
	if got := combine.Execute(ctx, fs); got != subcommands.ExitSuccess {
		t.Fatalf("combine Execute() = %v, want success", got)
	}
	recovered, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(recovered) != "file secret" {
		t.Errorf("recovered %q, want %q", recovered, "file secret")
	}
}

func TestCommandUsageErrors(t *testing.T) {
	ctx := context.Background()

	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	(&splitCmd{}).SetFlags(fs)
	if err := fs.Parse([]string{"only-one-arg"}); err != nil {
		t.Fatal(err)
	}
	if got := (&splitCmd{}).Execute(ctx, fs); got != subcommands.ExitUsageError {
		t.Errorf("split with one argument = %v, want usage error", got)
	}

	fs = flag.NewFlagSet("combine", flag.ContinueOnError)
	(&combineCmd{}).SetFlags(fs)
	if err := fs.Parse([]string{"-", "-", "out"}); err != nil {
		t.Fatal(err)
	}
	if got := (&combineCmd{}).Execute(ctx, fs); got != subcommands.ExitUsageError {
		t.Errorf("combine reading shares and blob from stdin = %v, want usage error", got)
	}
}
