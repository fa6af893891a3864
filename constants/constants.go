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

// Package constants contains shared constants between the CLI and the server.
package constants

// Version is displayed by the `version` subcommand and the server at startup.
const Version = "0.1.0"

// ConfigFileName is the name of the configuration file in os.UserConfigDir().
const ConfigFileName = "splitsecret.yaml"

// DefaultThreshold and DefaultTotal are the sharing policy used when neither
// flags nor the configuration file name one.
const (
	DefaultThreshold = 2
	DefaultTotal     = 3
)

// GrpcPort is the default port of the gRPC health service.
const GrpcPort = 9754

// HTTPPort is the default listening port for the split/combine HTTP API.
const HTTPPort = 9755

// MaxRequestBytes bounds the size of a request body accepted by the server.
const MaxRequestBytes = 1 << 20

// Endpoints served by the HTTP API.
const (
	SplitEndpoint   = "/v1/split"
	CombineEndpoint = "/v1/combine"
	MetricsEndpoint = "/metrics"
)
