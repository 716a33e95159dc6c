package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerlog/ledger/pkg/types"
)

func TestStatusErrorNil(t *testing.T) {
	assert.NoError(t, StatusError(nil))
}

func TestStatusErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{types.NewValidationError("level", "is invalid"), codes.InvalidArgument},
		{types.ErrUnauthenticated, codes.Unauthenticated},
		{types.ErrForbidden, codes.PermissionDenied},
		{types.ErrNotFound, codes.NotFound},
		{types.ErrConflict, codes.AlreadyExists},
		{types.ErrQueueFull, codes.ResourceExhausted},
		{types.ErrQuotaExceeded, codes.ResourceExhausted},
		{types.ErrUnavailable, codes.Unavailable},
		{errors.New("pgx: broken pipe"), codes.Internal},
	}
	for _, tc := range cases {
		got := StatusError(tc.err)
		assert.Equal(t, tc.want, status.Code(got), "%v", tc.err)
	}
}

func TestStatusErrorHidesInternalDetail(t *testing.T) {
	got := StatusError(errors.New("password for db is hunter2"))
	st, _ := status.FromError(got)
	assert.Equal(t, "internal error", st.Message())
}

func TestStatusErrorWrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("loading log: %w", types.ErrNotFound)
	assert.Equal(t, codes.NotFound, status.Code(StatusError(wrapped)))
}

func TestStatusErrorPassesThroughStatus(t *testing.T) {
	orig := status.Error(codes.DeadlineExceeded, "took too long")
	assert.Same(t, orig, StatusError(orig))
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(status.Error(codes.Unavailable, "down")))
	assert.True(t, IsUnavailable(status.Error(codes.DeadlineExceeded, "slow")))
	assert.False(t, IsUnavailable(status.Error(codes.NotFound, "missing")))
	assert.False(t, IsUnavailable(nil))
}
