package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerlog/ledger/pkg/types"
)

// StatusError maps a domain error to a gRPC status error. Servers
// call this at the RPC boundary so that clients see stable codes
// instead of internal error text.
func StatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && status.Code(err) != codes.Unknown {
		return err
	}

	switch {
	case types.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, types.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, types.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, types.ErrQueueFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, types.ErrQuotaExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, types.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// IsUnavailable reports whether err is a transport-level failure the
// gateway should treat as downstream-unavailable (breaker open,
// UNAVAILABLE, or deadline exceeded).
func IsUnavailable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}
