package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

// RequestIDHeader is the metadata key a caller may set to correlate logs.
const RequestIDHeader = "x-request-id"

// unaryInterceptor tags the call with a request ID, logs it and maps application
// errors to gRPC status codes.
func unaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		reqID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				reqID = v[0]
			}
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, reqID)

		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			err = common.ToStatus(err)
			logger.Warn("rpc.failed",
				"method", info.FullMethod,
				"req_id", reqID,
				"code", status.Code(err).String(),
				"error", err,
				"elapsed_ms", elapsed,
			)
			return nil, err
		}
		logger.Debug("rpc.ok", "method", info.FullMethod, "req_id", reqID, "elapsed_ms", elapsed)
		return resp, nil
	}
}
