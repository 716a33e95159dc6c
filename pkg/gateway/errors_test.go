package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerlog/ledger/pkg/breaker"
)

func recordRPCError(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	writeRPCError(w, err)
	return w
}

func TestWriteErrorBody(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusNotFound, "log not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "log not found", body.Detail)
}

func TestWriteRPCErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code codes.Code
		want int
	}{
		{codes.InvalidArgument, http.StatusBadRequest},
		{codes.Unauthenticated, http.StatusUnauthorized},
		{codes.PermissionDenied, http.StatusForbidden},
		{codes.NotFound, http.StatusNotFound},
		{codes.AlreadyExists, http.StatusConflict},
		{codes.ResourceExhausted, http.StatusServiceUnavailable},
		{codes.Unavailable, http.StatusServiceUnavailable},
		{codes.DeadlineExceeded, http.StatusServiceUnavailable},
		{codes.Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := recordRPCError(status.Error(tc.code, "downstream said no"))
		assert.Equal(t, tc.want, w.Code, tc.code.String())
	}
}

func TestWriteRPCErrorBackpressureRetryAfter(t *testing.T) {
	w := recordRPCError(status.Error(codes.ResourceExhausted, "queue full"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestWriteRPCErrorBreakerStates(t *testing.T) {
	for _, err := range []error{breaker.ErrOpen, breaker.ErrRecovering} {
		w := recordRPCError(err)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, err.Error())
	}
}

func TestWriteRPCErrorUnknownError(t *testing.T) {
	w := recordRPCError(errors.New("driver: bad connection"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Detail, "internal detail must not leak")
}
