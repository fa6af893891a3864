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

// Package server exposes split and combine over HTTP, with Prometheus metrics
// and a gRPC health service for orchestration probes.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoogleCloudPlatform/splitsecret/client"
	glog "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
)

// errRequest marks requests that are malformed before reaching the splitter.
var errRequest = errors.New("bad request")

// SplitRequest is the body of a split call.
type SplitRequest struct {
	Secret    string `json:"secret"`
	Threshold int    `json:"threshold"`
	Total     int    `json:"total"`
}

// SplitResponse is the result of a split call.
type SplitResponse struct {
	Shares []string `json:"shares"`
	Blob   string   `json:"blob"`
}

// CombineRequest is the body of a combine call. Indices map bare-hex shares,
// in order, to their share numbers.
type CombineRequest struct {
	Shares  []string `json:"shares"`
	Blob    string   `json:"blob"`
	Indices []int    `json:"indices,omitempty"`
}

// CombineResponse is the result of a combine call.
type CombineResponse struct {
	Secret string `json:"secret"`
}

// SplitSecretService runs split and combine requests and records their metrics.
type SplitSecretService struct {
	splitter *client.Splitter
	metrics  *Metrics
}

// NewSplitSecretService creates a service whose metrics are registered with reg.
func NewSplitSecretService(reg prometheus.Registerer) (*SplitSecretService, error) {
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &SplitSecretService{splitter: &client.Splitter{}, metrics: m}, nil
}

// Split validates the policy and splits req.Secret.
func (s *SplitSecretService) Split(ctx context.Context, req *SplitRequest) (resp *SplitResponse, err error) {
	start := time.Now()
	defer func() {
		s.metrics.observe(opSplit, time.Since(start).Seconds(), len(respShares(resp)), err)
	}()

	if req == nil {
		return nil, fmt.Errorf("%w: empty split request", errRequest)
	}
	if err := client.ValidatePolicy(req.Threshold, req.Total); err != nil {
		return nil, err
	}

	res, err := s.splitter.Split(ctx, req.Secret, req.Threshold, req.Total)
	if err != nil {
		return nil, err
	}
	return &SplitResponse{Shares: res.Shares, Blob: res.Blob}, nil
}

func respShares(resp *SplitResponse) []string {
	if resp == nil {
		return nil
	}
	return resp.Shares
}

// Combine recovers the secret from req.Shares and req.Blob.
func (s *SplitSecretService) Combine(ctx context.Context, req *CombineRequest) (resp *CombineResponse, err error) {
	start := time.Now()
	numShares := 0
	defer func() {
		s.metrics.observe(opCombine, time.Since(start).Seconds(), numShares, err)
	}()

	if req == nil {
		return nil, fmt.Errorf("%w: empty combine request", errRequest)
	}
	numShares = len(req.Shares)

	var opts []client.CombineOption
	if len(req.Indices) > 0 {
		opts = append(opts, client.WithShareIndices(req.Indices...))
	}
	secret, err := s.splitter.Combine(ctx, req.Shares, req.Blob, opts...)
	if err != nil {
		return nil, err
	}
	return &CombineResponse{Secret: secret}, nil
}

// selfCheckSecret is split and combined by SelfCheck. It is not sensitive.
const selfCheckSecret = "splitsecret self check"

// SelfCheck runs a 2-of-3 split and combines it from shares 1 and 3. The
// server reports itself healthy only after this succeeds.
func (s *SplitSecretService) SelfCheck(ctx context.Context) error {
	res, err := s.splitter.Split(ctx, selfCheckSecret, 2, 3)
	if err != nil {
		return fmt.Errorf("self check split failed: %w", err)
	}
	got, err := s.splitter.Combine(ctx, []string{res.Shares[0], res.Shares[2]}, res.Blob)
	if err != nil {
		return fmt.Errorf("self check combine failed: %w", err)
	}
	if got != selfCheckSecret {
		return fmt.Errorf("self check combine returned the wrong secret")
	}
	glog.V(1).Info("Self check passed")
	return nil
}
