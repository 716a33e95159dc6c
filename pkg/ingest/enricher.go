package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ledgerlog/ledger/pkg/config"
	"github.com/ledgerlog/ledger/pkg/types"
)

// Enricher validates incoming log events and stamps the derived
// fields (fingerprint, ingestion timestamp) before enqueue.
type Enricher struct {
	cfg config.Validation
}

// NewEnricher creates an enricher with the given validation caps
func NewEnricher(cfg config.Validation) *Enricher {
	return &Enricher{cfg: cfg}
}

// Enrich validates ev in place and, on success, computes the error
// fingerprint for exceptions and stamps the ingestion timestamp.
func (e *Enricher) Enrich(ev *types.LogEvent, now time.Time) error {
	applyDefaults(ev)

	if err := e.validate(ev, now); err != nil {
		return err
	}

	if ev.LogType == types.TypeException {
		ev.ErrorFingerprint = Fingerprint(ev.ErrorType, ev.StackTrace, ev.Platform)
	}
	ev.IngestionTimestamp = now.UTC()
	return nil
}

func applyDefaults(ev *types.LogEvent) {
	if ev.Level == "" {
		ev.Level = types.LevelInfo
	}
	if ev.LogType == "" {
		ev.LogType = types.TypeLogger
	}
	if ev.Importance == "" {
		ev.Importance = types.ImportanceStandard
	}
}

func (e *Enricher) validate(ev *types.LogEvent, now time.Time) error {
	if ev.EventTimestamp.IsZero() {
		return types.NewValidationError("timestamp", "is required")
	}
	tolerance := time.Duration(e.cfg.FutureToleranceMin) * time.Minute
	if ev.EventTimestamp.After(now.Add(tolerance)) {
		return types.NewValidationError("timestamp", "is too far in the future")
	}

	if !types.ValidLevel(string(ev.Level)) {
		return types.NewValidationError("level", fmt.Sprintf("invalid level %q", ev.Level))
	}
	if !types.ValidLogType(string(ev.LogType)) {
		return types.NewValidationError("log_type", fmt.Sprintf("invalid log type %q", ev.LogType))
	}

	if len(ev.Message) > e.cfg.MaxMessageLength {
		return types.NewValidationError("message",
			fmt.Sprintf("exceeds %d characters", e.cfg.MaxMessageLength))
	}
	if len(ev.ErrorMessage) > e.cfg.MaxErrorMessageLength {
		return types.NewValidationError("error_message",
			fmt.Sprintf("exceeds %d characters", e.cfg.MaxErrorMessageLength))
	}
	if len(ev.StackTrace) > e.cfg.MaxStackTraceLength {
		return types.NewValidationError("stack_trace",
			fmt.Sprintf("exceeds %d characters", e.cfg.MaxStackTraceLength))
	}
	if len(ev.ErrorType) > e.cfg.MaxErrorTypeLength {
		return types.NewValidationError("error_type",
			fmt.Sprintf("exceeds %d characters", e.cfg.MaxErrorTypeLength))
	}

	if ev.Attributes != nil {
		serialized, err := json.Marshal(ev.Attributes)
		if err != nil {
			return types.NewValidationError("attributes", "is not serializable")
		}
		if len(serialized) > e.cfg.MaxAttributesBytes {
			return types.NewValidationError("attributes",
				fmt.Sprintf("exceeds %d bytes", e.cfg.MaxAttributesBytes))
		}
	}

	switch ev.LogType {
	case types.TypeException:
		if ev.ErrorType == "" || ev.ErrorMessage == "" {
			return types.NewValidationError("log_type",
				"exception logs require error_type and error_message")
		}
	case types.TypeEndpoint:
		for _, field := range []string{"method", "path", "status_code", "duration_ms"} {
			if _, ok := ev.Attributes[field]; !ok {
				return types.NewValidationError("attributes",
					fmt.Sprintf("endpoint logs require attribute %q", field))
			}
		}
		for _, field := range []string{"method", "path"} {
			if !isString(ev.Attributes[field]) {
				return types.NewValidationError("attributes",
					fmt.Sprintf("endpoint attribute %q must be a non-empty string", field))
			}
		}
		if !isInteger(ev.Attributes["status_code"]) {
			return types.NewValidationError("attributes",
				`endpoint attribute "status_code" must be an integer`)
		}
		if !isNumber(ev.Attributes["duration_ms"]) {
			return types.NewValidationError("attributes",
				`endpoint attribute "duration_ms" must be a number`)
		}
	}
	return nil
}

func isString(v interface{}) bool {
	s, ok := v.(string)
	return ok && s != ""
}

// isNumber accepts every numeric representation a decoded payload can
// carry: JSON numbers arrive as float64, msgpack preserves the
// integer width of the sender.
func isNumber(v interface{}) bool {
	switch v.(type) {
	case float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isInteger(v interface{}) bool {
	switch n := v.(type) {
	case float64:
		return n == math.Trunc(n)
	case float32:
		return float64(n) == math.Trunc(float64(n))
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
