package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a failure into one of a closed set of actionable categories.
// The set is never extended at runtime.
type Kind string

const (
	KindUnauthorized   Kind = "UNAUTHORIZED"
	KindForbidden      Kind = "FORBIDDEN"
	KindNotFound       Kind = "NOT_FOUND"
	KindValidation     Kind = "VALIDATION"
	KindRateLimited    Kind = "RATE_LIMITED"
	KindServer         Kind = "SERVER"
	KindMissingContext Kind = "MISSING_CONTEXT"
	KindUnknown        Kind = "UNKNOWN"
)

// FallbackMessage is used when a failure carries no usable message.
const FallbackMessage = "an unexpected error occurred"

// IsValid reports whether the kind belongs to the closed taxonomy.
func (k Kind) IsValid() bool {
	switch k {
	case KindUnauthorized, KindForbidden, KindNotFound, KindValidation,
		KindRateLimited, KindServer, KindMissingContext, KindUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// HTTPStatus maps the kind back to the HTTP status the API layer responds with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return 401
	case KindForbidden:
		return 403
	case KindNotFound:
		return 404
	case KindValidation:
		return 400
	case KindRateLimited:
		return 429
	case KindServer:
		return 502
	case KindMissingContext:
		return 422
	default:
		return 500
	}
}

// NormalizedError is the single error shape the rest of the system consumes.
// It is created once at the boundary where a failure is first observed and then
// passed around as plain data, never re-classified.
type NormalizedError struct {
	Kind      Kind   `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"status,omitempty"`
	Retryable bool   `json:"retryable"`
	Cause     error  `json:"-"`
}

// Error implements the error interface.
func (e *NormalizedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the original failure for errors.Is/As chains.
func (e *NormalizedError) Unwrap() error {
	return e.Cause
}

// NewNormalizedError creates a normalized error with an explicit kind. Used when
// a component raises a taxonomy failure directly, such as MISSING_CONTEXT.
func NewNormalizedError(kind Kind, message string) *NormalizedError {
	if message == "" {
		message = FallbackMessage
	}
	return &NormalizedError{Kind: kind, Message: message}
}

// retryableStatuses is the fixed set of statuses eligible for automatic retry.
var retryableStatuses = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// kindFromStatus implements the fixed status mapping table.
func kindFromStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 400 || status == 422:
		return KindValidation
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// fieldView is the generic key-value projection of an arbitrary failure that the
// extractor rules operate on. Building the view is best-effort and never fails.
type fieldView map[string]any

// viewOf projects any value onto a fieldView. Maps are used directly; anything
// else goes through a JSON round-trip so struct fields with tags become visible.
// Values that cannot be projected yield an empty view.
func viewOf(v any) fieldView {
	if m, ok := v.(map[string]any); ok {
		return fieldView(m)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fieldView{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fieldView{}
	}
	return fieldView(m)
}

// intField extracts a numeric field; JSON decoding produces float64, but typed
// maps built in Go code may carry real integers.
func (fv fieldView) intField(key string) (int, bool) {
	switch n := fv[key].(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func (fv fieldView) stringField(key string) (string, bool) {
	s, ok := fv[key].(string)
	return s, ok
}

func (fv fieldView) boolField(key string) (bool, bool) {
	b, ok := fv[key].(bool)
	return b, ok
}

// extractorRule is one total, side-effect-free refinement step applied to the
// generic view of a failure.
type extractorRule func(fv fieldView, ne *NormalizedError)

// extractorRules run in order; later rules may override what earlier rules set.
var extractorRules = []extractorRule{
	// Numeric status (or numeric code) drives the kind table and retry set.
	func(fv fieldView, ne *NormalizedError) {
		status, ok := fv.intField("status")
		if !ok {
			status, ok = fv.intField("code")
		}
		if !ok {
			return
		}
		ne.Status = status
		ne.Kind = kindFromStatus(status)
		ne.Retryable = retryableStatuses[status]
	},
	// A recognized string code overrides the status-derived kind. Unrecognized
	// codes are ignored: the taxonomy is closed.
	func(fv fieldView, ne *NormalizedError) {
		if code, ok := fv.stringField("code"); ok {
			if k := Kind(code); k.IsValid() {
				ne.Kind = k
			}
		}
	},
	// An explicit retryable flag overrides the status-derived computation.
	func(fv fieldView, ne *NormalizedError) {
		if b, ok := fv.boolField("retryable"); ok {
			ne.Retryable = b
		}
	},
	// Non-empty message wins over the fallback.
	func(fv fieldView, ne *NormalizedError) {
		if msg, ok := fv.stringField("message"); ok && msg != "" {
			ne.Message = msg
		}
	},
}

// Normalize classifies any failure into a NormalizedError. It is total (never
// panics, handles nil, primitives, and arbitrary objects), idempotent (an
// already-normalized error passes through unchanged), and pure. It is the single
// place that decides retry eligibility for the rest of the system.
func Normalize(v any) *NormalizedError {
	if v == nil {
		return &NormalizedError{Kind: KindUnknown, Message: FallbackMessage}
	}

	if ne, ok := v.(*NormalizedError); ok {
		return ne
	}

	ne := &NormalizedError{Kind: KindUnknown, Message: FallbackMessage}

	if err, ok := v.(error); ok {
		var already *NormalizedError
		if errors.As(err, &already) {
			return already
		}
		ne.Cause = err
		if msg := err.Error(); msg != "" {
			ne.Message = msg
		}
		for _, rule := range extractorRules {
			rule(viewOf(err), ne)
		}
		return ne
	}

	for _, rule := range extractorRules {
		rule(viewOf(v), ne)
	}
	return ne
}
