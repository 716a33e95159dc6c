package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerlog/ledger/pkg/breaker"
	"github.com/ledgerlog/ledger/pkg/log"
)

// errorBody is the uniform error payload. The detail is always a safe,
// short message; stack traces and credentials never reach a client.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorBody{Detail: detail})
}

// writeRPCError translates a downstream call failure to HTTP. Breaker
// rejections and transport unavailability both surface as 503;
// backpressure adds a Retry-After hint.
func writeRPCError(w http.ResponseWriter, err error) {
	if errors.Is(err, breaker.ErrOpen) || errors.Is(err, breaker.ErrRecovering) {
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}

	st, ok := status.FromError(err)
	if !ok {
		logger := log.WithComponent("gateway")
		logger.Error().Err(err).Msg("unhandled downstream error")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch st.Code() {
	case codes.InvalidArgument:
		writeError(w, http.StatusBadRequest, st.Message())
	case codes.Unauthenticated:
		writeError(w, http.StatusUnauthorized, st.Message())
	case codes.PermissionDenied:
		writeError(w, http.StatusForbidden, st.Message())
	case codes.NotFound:
		writeError(w, http.StatusNotFound, st.Message())
	case codes.AlreadyExists:
		writeError(w, http.StatusConflict, st.Message())
	case codes.ResourceExhausted:
		w.Header().Set("Retry-After", strconv.Itoa(backpressureRetryAfterS))
		writeError(w, http.StatusServiceUnavailable, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		logger := log.WithComponent("gateway")
		logger.Error().
			Str("code", st.Code().String()).
			Str("message", st.Message()).
			Msg("downstream call failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// backpressureRetryAfterS is the Retry-After hint on 503 responses
// caused by full ingestion queues.
const backpressureRetryAfterS = 60
