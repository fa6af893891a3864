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

package server

import (
	"errors"
	"fmt"

	"github.com/GoogleCloudPlatform/splitsecret/client/errdefs"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "splitsecret"

	labelOperation = "operation"
	labelStatus    = "status"

	opSplit   = "split"
	opCombine = "combine"

	statusOK       = "ok"
	statusInternal = "internal"
)

// Metrics holds the Prometheus collectors of a SplitSecretService.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	shares     *prometheus.HistogramVec
}

// NewMetrics creates the service collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "operations_total",
				Help:      "Split and combine operations by outcome.",
			},
			[]string{labelOperation, labelStatus},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of split and combine operations in seconds.",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{labelOperation},
		),
		shares: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "shares_per_operation",
				Help:      "Number of shares produced by a split or supplied to a combine.",
				Buckets:   []float64{2, 3, 5, 10, 20, 50, 100, 255},
			},
			[]string{labelOperation},
		),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration, m.shares} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(op string, seconds float64, numShares int, err error) {
	m.operations.WithLabelValues(op, statusLabel(err)).Inc()
	m.duration.WithLabelValues(op).Observe(seconds)
	if numShares > 0 {
		m.shares.WithLabelValues(op).Observe(float64(numShares))
	}
}

// statusLabel names the outcome of an operation for the status label.
func statusLabel(err error) string {
	if err == nil {
		return statusOK
	}
	switch errdefs.Kind(err) {
	case errdefs.ErrPolicy:
		return "policy"
	case errdefs.ErrMalformedShare:
		return "malformed_share"
	case errdefs.ErrMalformedBlob:
		return "malformed_blob"
	case errdefs.ErrInsufficientShares:
		return "insufficient_shares"
	case errdefs.ErrAuthentication:
		return "authentication"
	}
	if errors.Is(err, errRequest) {
		return "bad_request"
	}
	return statusInternal
}
