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

// Package config loads the YAML configuration shared by the CLI and the server.
//
// An example splitsecret.yaml:
//
//	defaultThreshold: 3
//	defaultTotal: 5
//	server:
//	  httpPort: 9755
//	  grpcPort: 9754
//	  maxRequestBytes: 1048576
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GoogleCloudPlatform/splitsecret/client"
	"github.com/GoogleCloudPlatform/splitsecret/constants"
	glog "github.com/golang/glog"
	"sigs.k8s.io/yaml"
)

// Config holds the settings read from splitsecret.yaml.
type Config struct {
	DefaultThreshold int          `json:"defaultThreshold"`
	DefaultTotal     int          `json:"defaultTotal"`
	Server           ServerConfig `json:"server"`
}

// ServerConfig holds the settings of cmd/server.
type ServerConfig struct {
	HTTPPort        int   `json:"httpPort"`
	GRPCPort        int   `json:"grpcPort"`
	MaxRequestBytes int64 `json:"maxRequestBytes"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DefaultThreshold: constants.DefaultThreshold,
		DefaultTotal:     constants.DefaultTotal,
		Server: ServerConfig{
			HTTPPort:        constants.HTTPPort,
			GRPCPort:        constants.GrpcPort,
			MaxRequestBytes: constants.MaxRequestBytes,
		},
	}
}

// DefaultPath returns the location of splitsecret.yaml in the user's
// configuration directory.
func DefaultPath() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory location: %w", err)
	}
	return filepath.Join(cfgDir, constants.ConfigFileName), nil
}

// Load reads the configuration at path. A missing file yields Default();
// fields omitted from the file keep their default values.
func Load(path string) (*Config, error) {
	yamlBytes, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		glog.V(1).Infof("No config file at %s, using defaults", path)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(yamlBytes)
}

// Parse decodes and validates YAML configuration. Unknown fields are rejected.
func Parse(yamlBytes []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(yamlBytes, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the default policy and the server settings.
func (c *Config) Validate() error {
	if err := client.ValidatePolicy(c.DefaultThreshold, c.DefaultTotal); err != nil {
		return fmt.Errorf("invalid default policy in config: %w", err)
	}
	for name, port := range map[string]int{"httpPort": c.Server.HTTPPort, "grpcPort": c.Server.GRPCPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("server.%s %d out of range 1..65535", name, port)
		}
	}
	if c.Server.HTTPPort == c.Server.GRPCPort {
		return fmt.Errorf("server.httpPort and server.grpcPort are both %d", c.Server.HTTPPort)
	}
	if c.Server.MaxRequestBytes <= 0 {
		return fmt.Errorf("server.maxRequestBytes must be positive, got %d", c.Server.MaxRequestBytes)
	}
	return nil
}
