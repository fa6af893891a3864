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
	"net/http/httptest"
	"testing"

	"github.com/GoogleCloudPlatform/splitsecret/constants"
	"github.com/GoogleCloudPlatform/splitsecret/server"
	"github.com/prometheus/client_golang/prometheus"
)

func TestConformanceAgainstReferenceServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, err := server.NewSplitSecretService(reg)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(server.NewSplitSecretHTTPService(svc, reg, constants.MaxRequestBytes).Mux())
	defer srv.Close()

	c := &conformanceClient{baseURL: srv.URL, http: srv.Client()}
	for _, testCase := range conformanceTests {
		t.Run(testCase.testName, func(t *testing.T) {
			if err := testCase.run(c); err != nil {
				t.Error(err)
			}
		})
	}
}
