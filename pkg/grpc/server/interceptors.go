package server

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const healthMethodPrefix = "/grpc.health.v1.Health/"

// peerAddr returns the caller's address, or "unknown" outside a transport.
func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

// LoggingInterceptor logs every unary call with its caller and outcome.
// Successful health checks log at debug since probes poll them constantly.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		st := status.Convert(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("peer", peerAddr(ctx)),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", st.Code().String()),
		}

		switch {
		case err != nil:
			logger.Warn("grpc call failed", append(fields, zap.String("message", st.Message()))...)
		case strings.HasPrefix(info.FullMethod, healthMethodPrefix):
			logger.Debug("grpc call", fields...)
		default:
			logger.Info("grpc call", fields...)
		}
		return resp, err
	}
}
