package logging

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func callFields(ctx context.Context, method string, start time.Time, err error) []zap.Field {
	clientIP := "unknown"
	if p, ok := peer.FromContext(ctx); ok {
		clientIP = p.Addr.String()
	}
	return []zap.Field{
		zap.String("method", method),
		zap.String("client_ip", clientIP),
		zap.String("code", status.Code(err).String()),
		zap.Duration("duration", time.Since(start)),
	}
}

func logCall(ctx context.Context, logger *Logger, fields []zap.Field, err error) {
	switch status.Code(err) {
	case codes.OK, codes.Canceled:
		logger.Debug(ctx, "grpc call handled", fields...)
	case codes.Internal, codes.Unknown, codes.Unavailable:
		logger.Error(ctx, "grpc call failed", append(fields, zap.Error(err))...)
	default:
		logger.Info(ctx, "grpc call rejected", append(fields, zap.Error(err))...)
	}
}

// NewUnaryLoggingInterceptor logs unary calls served by the health server.
func NewUnaryLoggingInterceptor(logger *Logger) grpc.UnaryServerInterceptor {
	logger = logger.Named("grpc")
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		ctx = ContextWithLogger(ctx, logger)

		resp, err := handler(ctx, req)
		logCall(ctx, logger, callFields(ctx, info.FullMethod, start, err), err)
		return resp, err
	}
}

func NewStreamLoggingInterceptor(logger *Logger) grpc.StreamServerInterceptor {
	logger = logger.Named("grpc")
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(ss.Context(), logger, callFields(ss.Context(), info.FullMethod, start, err), err)
		return err
	}
}
