package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"runtime/debug"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func RecoverUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in handler", "method", info.FullMethod, "error", r, "trace", debug.Stack())
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func RecoverStreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in handler", "method", info.FullMethod, "error", r, "trace", debug.Stack())
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(srv, ss)
	}
}

// AuthUnaryInterceptor rejects calls without a matching bearer token.
// An empty token disables the check.
func AuthUnaryInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !checkToken(ctx, token) {
			return nil, status.Error(codes.Unauthenticated, "invalid or missing bearer token")
		}
		return handler(ctx, req)
	}
}

func AuthStreamInterceptor(token string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !checkToken(ss.Context(), token) {
			return status.Error(codes.Unauthenticated, "invalid or missing bearer token")
		}
		return handler(srv, ss)
	}
}

func checkToken(ctx context.Context, token string) bool {
	if token == "" {
		return true
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return false
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return false
	}
	auth := strings.Split(values[0], " ")
	if len(auth) != 2 {
		return false
	}
	if auth[0] != "Bearer" {
		return false
	}
	if x := subtle.ConstantTimeCompare([]byte(auth[1]), []byte(token)); x == 1 {
		return true
	} // constant time comparison to prevent time attack
	return false
}
