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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"flag"
	"github.com/GoogleCloudPlatform/splitsecret/client"
	"github.com/GoogleCloudPlatform/splitsecret/config"
	"github.com/GoogleCloudPlatform/splitsecret/constants"
	glog "github.com/golang/glog"
	"github.com/google/subcommands"
)

// stdio is the path that stands for stdin or stdout.
const stdio = "-"

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openInput(path string) (io.ReadCloser, error) {
	if path == stdio {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// openOutput creates path with mode 0600. Outputs hold shares or plaintext.
func openOutput(path string) (io.WriteCloser, error) {
	if path == stdio {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
}

func readAll(path string) ([]byte, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return io.ReadAll(in)
}

func defaultConfigPath() string {
	path, err := config.DefaultPath()
	if err != nil {
		glog.Errorf("Failed to get config directory location: %v", err.Error())
	}
	return path
}

// splitCmd handles CLI options for the split command.
type splitCmd struct {
	configFile string
	threshold  int
	total      int
	sharesOut  string
	quiet      bool
}

func (*splitCmd) Name() string { return "split" }
func (*splitCmd) Synopsis() string {
	return "splits a secret into shares and an encrypted blob"
}
func (*splitCmd) Usage() string {
	return fmt.Sprintf(`Usage: splitsecret split [--config-file=<config_file>] [--threshold=<k>] [--total=<n>] [--shares-out=<shares_file>] <secret_file> <blob_file>

Examples:
  Split a secret into 3 shares, any 2 of which recover it, using %s for defaults:
    $ splitsecret split --threshold=2 --total=3 --shares-out=shares.txt secret.txt blob.json

  Split a secret read from stdin, printing the blob to stdout:
    $ echo -n "hello world" | splitsecret split --shares-out=shares.txt - - > blob.json

Flags:
`, defaultConfigPath())
}
func (s *splitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.configFile, "config-file", defaultConfigPath(), "Path to a splitsecret YAML file. Optional.")
	f.IntVar(&s.threshold, "threshold", 0, "Number of shares needed to recover the secret. Defaults to defaultThreshold from the config file.")
	f.IntVar(&s.total, "total", 0, "Number of shares to create. Defaults to defaultTotal from the config file.")
	f.StringVar(&s.sharesOut, "shares-out", stdio, "File to write the shares to, one per line.")
	f.BoolVar(&s.quiet, "quiet", false, "Suppress logging output.")
}

func (s *splitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected secret file and blob file)")
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load(s.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	threshold, total := s.threshold, s.total
	if threshold == 0 {
		threshold = cfg.DefaultThreshold
	}
	if total == 0 {
		total = cfg.DefaultTotal
	}

	secret, err := readAll(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer clear(secret)

	sharesFile, err := openOutput(s.sharesOut)
	if err != nil {
		glog.Errorf("Failed to open file for shares: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer sharesFile.Close()

	blobFile, err := openOutput(f.Arg(1))
	if err != nil {
		glog.Errorf("Failed to open file for blob: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer blobFile.Close()

	if err := runSplit(ctx, string(secret), threshold, total, sharesFile, blobFile); err != nil {
		glog.Errorf("Failed to split secret: %v", err.Error())
		return subcommands.ExitFailure
	}

	if !s.quiet {
		fmt.Fprintf(os.Stderr, "Wrote %d shares (threshold %d) to %s and the blob to %s\n", total, threshold, s.sharesOut, f.Arg(1))
	}
	return subcommands.ExitSuccess
}

// runSplit writes one share per line to sharesOut and the blob record to blobOut.
func runSplit(ctx context.Context, secret string, threshold, total int, sharesOut, blobOut io.Writer) error {
	if err := client.ValidatePolicy(threshold, total); err != nil {
		return err
	}

	res, err := (&client.Splitter{}).Split(ctx, secret, threshold, total)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(sharesOut, strings.Join(res.Shares, "\n")+"\n"); err != nil {
		return fmt.Errorf("failed to write shares: %w", err)
	}
	if _, err := io.WriteString(blobOut, res.Blob+"\n"); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

// combineCmd handles CLI options for the combine command.
type combineCmd struct {
	shareIndex string
	quiet      bool
}

func (*combineCmd) Name() string { return "combine" }
func (*combineCmd) Synopsis() string {
	return "recovers a secret from shares and its encrypted blob"
}
func (*combineCmd) Usage() string {
	return `Usage: splitsecret combine [--share-index=<i,j,...>] <shares_file> <blob_file> <secret_file>

Examples:
  Recover a secret from the shares in shares.txt, one per line:
    $ splitsecret combine shares.txt blob.json secret.txt

  Recover a secret from shares written as bare hex, which were shares 1 and 3:
    $ splitsecret combine --share-index=1,3 shares.txt blob.json -

Flags:
`
}
func (c *combineCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.shareIndex, "share-index", "", "Comma-separated share numbers for shares written without an \"<index>:\" prefix, in file order.")
	f.BoolVar(&c.quiet, "quiet", false, "Suppress logging output.")
}

func (c *combineCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 3 {
		glog.Errorf("Not enough arguments (expected shares file, blob file and secret file)")
		return subcommands.ExitUsageError
	}
	if f.Arg(0) == stdio && f.Arg(1) == stdio {
		glog.Errorf("Shares and blob cannot both be read from stdin")
		return subcommands.ExitUsageError
	}

	indices, err := parseIndices(c.shareIndex)
	if err != nil {
		glog.Errorf("Invalid --share-index: %v", err.Error())
		return subcommands.ExitUsageError
	}

	sharesIn, err := readAll(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read shares: %v", err.Error())
		return subcommands.ExitFailure
	}
	blobIn, err := readAll(f.Arg(1))
	if err != nil {
		glog.Errorf("Failed to read blob: %v", err.Error())
		return subcommands.ExitFailure
	}

	outFile, err := openOutput(f.Arg(2))
	if err != nil {
		glog.Errorf("Failed to open file for secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer outFile.Close()

	if err := runCombine(ctx, string(sharesIn), string(blobIn), indices, outFile); err != nil {
		glog.Errorf("Failed to combine shares: %v", err.Error())
		return subcommands.ExitFailure
	}

	if !c.quiet && f.Arg(2) != stdio {
		fmt.Fprintln(os.Stderr, "Wrote secret to", f.Arg(2))
	}
	return subcommands.ExitSuccess
}

// runCombine reads share lines from shares and writes the recovered secret to out.
func runCombine(ctx context.Context, shares, blob string, indices []int, out io.Writer) error {
	var opts []client.CombineOption
	if len(indices) > 0 {
		opts = append(opts, client.WithShareIndices(indices...))
	}

	secret, err := (&client.Splitter{}).Combine(ctx, strings.Split(shares, "\n"), blob, opts...)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, secret); err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}
	return nil
}

// parseIndices parses a comma-separated list of share numbers.
func parseIndices(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var indices []int
	for _, field := range strings.Split(s, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("%q is not a share number", field)
		}
		indices = append(indices, i)
	}
	return indices, nil
}

// versionCmd handles CLI options for the version command.
type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "prints the current version" }
func (*versionCmd) Usage() string          { return "Usage: splitsecret version" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Printf("splitsecret version %s\n", constants.Version)
	return subcommands.ExitSuccess
}
