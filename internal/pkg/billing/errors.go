package billing

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures of the payment flow.
type Kind string

const (
	KindInvalidRequest       Kind = "invalid_request"
	KindConfigurationMissing Kind = "configuration_missing"
	KindUpstreamLookupFailed Kind = "upstream_lookup_failed"
	KindPersistenceFailed    Kind = "persistence_failed"
	KindSchedulingFailed     Kind = "scheduling_failed"
	KindUnexpected           Kind = "unexpected_failure"
)

// Error is a classified failure. StatusCode is what the webhook caller sees;
// for upstream failures it mirrors the provider's own status.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, StatusCode: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func configurationMissing(key string) *Error {
	return &Error{Kind: KindConfigurationMissing, StatusCode: http.StatusInternalServerError, Message: key + " is not configured"}
}

func upstreamFailed(status int, body string, err error) *Error {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return &Error{Kind: KindUpstreamLookupFailed, StatusCode: status, Message: "payment lookup failed", Detail: body, Err: err}
}

func persistenceFailed(err error) *Error {
	return &Error{Kind: KindPersistenceFailed, StatusCode: http.StatusInternalServerError, Message: "payment record could not be stored", Detail: err.Error(), Err: err}
}

func schedulingFailed(err error) *Error {
	status := http.StatusBadGateway
	var e *Error
	if errors.As(err, &e) {
		status = e.StatusCode
	}
	return &Error{Kind: KindSchedulingFailed, StatusCode: status, Message: "next charge could not be scheduled", Err: err}
}

// AsError classifies err. Anything that is not already an *Error becomes
// KindUnexpected with a 500 status.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnexpected, StatusCode: http.StatusInternalServerError, Message: "unexpected failure", Err: err}
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
