package metadata

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"sync_service/pkg/ctxdata"
)

const (
	TraceIDKey = "x-trace-id"
	UserIDKey  = "x-user-id"
)

// FromIncoming copies trace and user ids from gRPC metadata into ctx.
// A missing trace id is generated; a user id that is not a UUID is dropped.
func FromIncoming(ctx context.Context) context.Context {
	var traceID, userID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(TraceIDKey); len(values) > 0 {
			traceID = values[0]
		}
		if values := md.Get(UserIDKey); len(values) > 0 {
			userID = values[0]
		}
	}

	if traceID == "" {
		if id, err := uuid.NewV7(); err == nil {
			traceID = id.String()
		}
	}
	ctx = ctxdata.WithTraceID(ctx, traceID)

	if _, err := uuid.Parse(userID); err == nil {
		ctx = ctxdata.WithUserID(ctx, userID)
	}
	return ctx
}

func NewMetadataUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx = FromIncoming(ctx)
		if traceID, ok := ctxdata.GetTraceID(ctx); ok {
			_ = grpc.SetHeader(ctx, metadata.Pairs(TraceIDKey, traceID))
		}
		return handler(ctx, req)
	}
}

// NewMetadataStreamInterceptor covers streaming calls such as health Watch.
func NewMetadataStreamInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		return handler(srv, &wrappedStream{ServerStream: ss, ctx: FromIncoming(ss.Context())})
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
