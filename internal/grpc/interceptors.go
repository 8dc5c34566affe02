package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/oriys/memo/internal/cache"
	"github.com/oriys/memo/internal/logging"
	"github.com/oriys/memo/internal/origin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// loggingInterceptor logs all gRPC requests
func loggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	duration := time.Since(start)
	if err != nil {
		logging.Op().Error("gRPC request failed",
			"method", info.FullMethod,
			"duration", duration,
			"error", err,
		)
	} else {
		logging.Op().Debug("gRPC request completed",
			"method", info.FullMethod,
			"duration", duration,
		)
	}

	return resp, err
}

// errorHandlingInterceptor converts errors to gRPC status codes
func errorHandlingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return resp, nil
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, cache.ErrNotFound), errors.Is(err, origin.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
