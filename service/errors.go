package service

import (
	"errors"
	"net/http"

	"payment-service/upstream"
)

// Kind classifies why a payment failed.
type Kind int

const (
	KindInternal Kind = iota
	KindClientInput
	KindUpstreamTransport
	KindUpstreamStatus
)

func (k Kind) String() string {
	switch k {
	case KindClientInput:
		return "client_input"
	case KindUpstreamTransport:
		return "upstream_transport"
	case KindUpstreamStatus:
		return "upstream_status"
	default:
		return "internal"
	}
}

// Failure is the terminal error of a payment transaction. Message is what the
// caller sees; Status is the HTTP status to answer with.
type Failure struct {
	State   State // last state reached before the failing step
	Kind    Kind
	Reason  string
	Status  int
	Message string
	// Charged is set when the gateway had already accepted the charge.
	Charged bool
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// HTTPStatus maps any error returned by Pay to a response status.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var f *Failure
	if errors.As(err, &f) && f.Status != 0 {
		return f.Status
	}
	return http.StatusInternalServerError
}

func clientFailure(reason string, err error, message string) *Failure {
	return &Failure{
		Kind:    KindClientInput,
		Reason:  reason,
		Status:  http.StatusBadRequest,
		Message: message,
		Err:     err,
	}
}

// transportFailure reports a collaborator that could not be reached; the
// caller gets the transport error text.
func transportFailure(reason string, out upstream.Outcome) *Failure {
	return &Failure{
		Kind:    KindUpstreamTransport,
		Reason:  reason,
		Status:  http.StatusInternalServerError,
		Message: out.ErrorDetail,
		Err:     out.Err,
	}
}

// statusFailure passes a collaborator's rejecting status through to the caller.
func statusFailure(reason string, out upstream.Outcome, message string) *Failure {
	return &Failure{
		Kind:    KindUpstreamStatus,
		Reason:  reason,
		Status:  out.StatusCode,
		Message: message,
	}
}
