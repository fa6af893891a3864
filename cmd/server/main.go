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

// Reference server binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flag"
	"github.com/GoogleCloudPlatform/splitsecret/config"
	"github.com/GoogleCloudPlatform/splitsecret/constants"
	"github.com/GoogleCloudPlatform/splitsecret/server"
	glog "github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	configFile = flag.String("config-file", "", "Path to a splitsecret YAML file. Defaults to splitsecret.yaml in the user config directory.")
	httpPort   = flag.Int("http-port", 0, "HTTP API port. Overrides server.httpPort from the config file.")
	grpcPort   = flag.Int("grpc-port", 0, "gRPC health port. Overrides server.grpcPort from the config file.")
)

func loadConfig() (*config.Config, error) {
	path := *configFile
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if *httpPort != 0 {
		cfg.Server.HTTPPort = *httpPort
	}
	if *grpcPort != 0 {
		cfg.Server.GRPCPort = *grpcPort
	}
	return cfg, cfg.Validate()
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		glog.Fatalf("failed to load config: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc, err := server.NewSplitSecretService(reg)
	if err != nil {
		glog.Fatalf("failed to create service: %v", err)
	}

	// Listen for gRPC health checks on the gRPC port.
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		glog.Fatalf("failed to listen: %v", err)
	}
	grpcServer, healthServer := server.NewGRPCServer()
	go func() {
		glog.Infof("Starting gRPC health service on port %v.", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			glog.Errorf("gRPC server stopped: %v", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           server.NewSplitSecretHTTPService(svc, reg, cfg.Server.MaxRequestBytes).Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.MarkReady(ctx, svc, healthServer); err != nil {
		glog.Fatalf("self check failed: %v", err)
	}

	go func() {
		<-ctx.Done()
		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			glog.Errorf("HTTP shutdown failed: %v", err)
		}
		grpcServer.GracefulStop()
	}()

	glog.Infof("Starting splitsecret %s HTTP API on port %v.", constants.Version, cfg.Server.HTTPPort)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		glog.Fatalf("HTTP server failed: %v", err)
	}
	glog.Info("Server stopped.")
}
