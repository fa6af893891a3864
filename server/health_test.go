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
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestHealthReportsServingAfterSelfCheck(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	grpcServer, healthServer := NewGRPCServer()

	lis := bufconn.Listen(1 << 20)
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient() failed: %v", err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q) failed: %v", service, err)
		}
		return resp.GetStatus()
	}

	if got := check(HealthServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status before MarkReady = %v, want NOT_SERVING", got)
	}

	if err := MarkReady(ctx, svc, healthServer); err != nil {
		t.Fatalf("MarkReady() failed: %v", err)
	}
	for _, service := range []string{"", HealthServiceName} {
		if got := check(service); got != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q) = %v, want SERVING", service, got)
		}
	}
}

func TestMarkReadyFailsWithCanceledContext(t *testing.T) {
	svc, _ := newTestService(t)
	_, healthServer := NewGRPCServer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := MarkReady(ctx, svc, healthServer); err == nil {
		t.Errorf("MarkReady(canceled) succeeded, want error")
	}
}
