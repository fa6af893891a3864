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

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/GoogleCloudPlatform/splitsecret/client/errdefs"
	"github.com/GoogleCloudPlatform/splitsecret/constants"
	glog "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the ID assigned to each request, for log correlation.
const RequestIDHeader = "X-Request-Id"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"requestId"`
}

// SplitSecretHTTPService serves a SplitSecretService as JSON over HTTP.
type SplitSecretHTTPService struct {
	svc             *SplitSecretService
	gatherer        prometheus.Gatherer
	maxRequestBytes int64
}

// NewSplitSecretHTTPService creates an HTTP front end for svc. Metrics are
// served from gatherer; request bodies above maxRequestBytes are rejected.
func NewSplitSecretHTTPService(svc *SplitSecretService, gatherer prometheus.Gatherer, maxRequestBytes int64) *SplitSecretHTTPService {
	return &SplitSecretHTTPService{svc: svc, gatherer: gatherer, maxRequestBytes: maxRequestBytes}
}

// Mux returns a ServeMux with the API and metrics endpoints registered.
func (s *SplitSecretHTTPService) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(constants.SplitEndpoint, s.Handler)
	mux.HandleFunc(constants.CombineEndpoint, s.Handler)
	mux.Handle(constants.MetricsEndpoint, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Handler acts as a HandlerFunc for the split and combine endpoints.
func (s *SplitSecretHTTPService) Handler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set(RequestIDHeader, requestID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, requestID, http.StatusMethodNotAllowed, fmt.Errorf("%w: method %s not allowed", errRequest, r.Method))
		return
	}

	endpoint := r.URL.Path
	switch {
	case strings.HasSuffix(endpoint, constants.SplitEndpoint):
		s.handleSplit(w, r, requestID)
	case strings.HasSuffix(endpoint, constants.CombineEndpoint):
		s.handleCombine(w, r, requestID)
	default:
		writeError(w, requestID, http.StatusNotFound, fmt.Errorf("%w: unknown endpoint %s", errRequest, endpoint))
	}
}

func (s *SplitSecretHTTPService) handleSplit(w http.ResponseWriter, r *http.Request, requestID string) {
	req := &SplitRequest{}
	if status, err := s.processHTTPRequest(w, r, req); err != nil {
		writeError(w, requestID, status, err)
		return
	}

	resp, err := s.svc.Split(r.Context(), req)
	if err != nil {
		writeError(w, requestID, statusCode(err), err)
		return
	}

	glog.V(1).Infof("[%s] split: threshold %d, %d shares", requestID, req.Threshold, len(resp.Shares))
	writeJSON(w, requestID, http.StatusOK, resp)
}

func (s *SplitSecretHTTPService) handleCombine(w http.ResponseWriter, r *http.Request, requestID string) {
	req := &CombineRequest{}
	if status, err := s.processHTTPRequest(w, r, req); err != nil {
		writeError(w, requestID, status, err)
		return
	}

	resp, err := s.svc.Combine(r.Context(), req)
	if err != nil {
		writeError(w, requestID, statusCode(err), err)
		return
	}

	glog.V(1).Infof("[%s] combine: %d share lines", requestID, len(req.Shares))
	writeJSON(w, requestID, http.StatusOK, resp)
}

// processHTTPRequest decodes the JSON body of httpReq into dst, returning
// the HTTP status to report on failure.
func (s *SplitSecretHTTPService) processHTTPRequest(w http.ResponseWriter, httpReq *http.Request, dst any) (int, error) {
	defer httpReq.Body.Close()
	reqBody, err := io.ReadAll(http.MaxBytesReader(w, httpReq.Body, s.maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("%w: request body exceeds %d bytes", errRequest, tooLarge.Limit)
		}
		return http.StatusBadRequest, fmt.Errorf("%w: unable to read HTTP request body: %v", errRequest, err)
	}

	dec := json.NewDecoder(bytes.NewReader(reqBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return http.StatusBadRequest, fmt.Errorf("%w: unable to unmarshal HTTP request body: %v", errRequest, err)
	}
	if dec.More() {
		return http.StatusBadRequest, fmt.Errorf("%w: trailing data after request body", errRequest)
	}
	return http.StatusOK, nil
}

// statusCode maps an error returned by the service to an HTTP status.
func statusCode(err error) int {
	switch errdefs.Kind(err) {
	case errdefs.ErrPolicy, errdefs.ErrMalformedShare, errdefs.ErrMalformedBlob, errdefs.ErrInsufficientShares:
		return http.StatusBadRequest
	case errdefs.ErrAuthentication:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, errRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, requestID string, status int, err error) {
	if status >= http.StatusInternalServerError {
		glog.Errorf("[%s] request failed: %v", requestID, err)
	} else {
		glog.V(1).Infof("[%s] request rejected (%d): %v", requestID, status, err)
	}
	writeJSON(w, requestID, status, &ErrorResponse{Error: err.Error(), Kind: statusLabel(err), RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, requestID string, status int, body any) {
	marshaled, err := json.Marshal(body)
	if err != nil {
		glog.Errorf("[%s] failed to marshal response: %v", requestID, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(marshaled); err != nil {
		glog.V(1).Infof("[%s] failed to write response: %v", requestID, err)
	}
}
