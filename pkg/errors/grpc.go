package errors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToGRPCCode converts an error code to a gRPC code.
func ToGRPCCode(code string) codes.Code {
	return lookup(code).grpc
}

// ToGRPCError converts err into a gRPC status error. Errors that already
// carry a status pass through; internal causes are not exposed.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var appErr *AppError
	if !As(err, &appErr) {
		return status.Error(codes.Internal, "internal error")
	}
	code := ToGRPCCode(appErr.code)
	if IsServerFault(appErr) {
		return status.Error(code, code.String())
	}
	return status.Error(code, appErr.message)
}

// UnaryServerInterceptor maps handler errors through ToGRPCError.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		return resp, ToGRPCError(err)
	}
}
