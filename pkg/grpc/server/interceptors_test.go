package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// TestLoggingInterceptor tests pass-through and the logged fields
func TestLoggingInterceptor(t *testing.T) {
	caller := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 7), Port: 41234}
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: caller})
	health := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	other := &grpc.UnaryServerInfo{FullMethod: "/grpc.reflection.v1.ServerReflection/Info"}

	ok := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	fail := func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.Unavailable, "source down")
	}

	t.Run("successful health check logs at debug with peer", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		resp, err := LoggingInterceptor(zap.New(core))(ctx, "req", health, ok)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, "10.0.0.7:41234", entries[0].ContextMap()["peer"])
		assert.Equal(t, codes.OK.String(), entries[0].ContextMap()["code"])
	})

	t.Run("health checks stay out of info logs", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		_, err := LoggingInterceptor(zap.New(core))(ctx, "req", health, ok)
		require.NoError(t, err)
		assert.Zero(t, logs.Len())
	})

	t.Run("other methods log at info", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		_, err := LoggingInterceptor(zap.New(core))(ctx, "req", other, ok)
		require.NoError(t, err)
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.InfoLevel, logs.All()[0].Level)
	})

	t.Run("errors pass through and warn", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		_, err := LoggingInterceptor(zap.New(core))(ctx, "req", health, fail)
		require.Error(t, err)
		assert.Equal(t, codes.Unavailable, status.Code(err))

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "source down", entries[0].ContextMap()["message"])
		assert.Equal(t, "10.0.0.7:41234", entries[0].ContextMap()["peer"])
	})

	t.Run("no peer in context", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		_, err := LoggingInterceptor(zap.New(core))(context.Background(), "req", other, ok)
		require.NoError(t, err)
		assert.Equal(t, "unknown", logs.All()[0].ContextMap()["peer"])
	})
}

// TestHealthServices tests the dashboard health flip over a real connection
func TestHealthServices(t *testing.T) {
	srv, err := New(
		WithPort(0),
		WithLogger(zaptest.NewLogger(t)),
		WithLogging(true),
		WithHealthServices("dashboard"),
	)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(srv.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.Status
	}

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check("dashboard"))

	srv.SetServing("dashboard", false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check("dashboard"))

	srv.SetServing("dashboard", true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check("dashboard"))
}

func TestNewRejectsBadPort(t *testing.T) {
	_, err := New(WithPort(70000))
	assert.ErrorContains(t, err, "invalid port")
}
