package service

import (
	"errors"
	"fmt"
	"net/http"

	"brevio/web/internal/model"
)

var (
	ErrInvalid = errors.New("invalid")

	ErrTransport   = errors.New("summarization transport failed")
	ErrApplication = errors.New("summarization service reported an error")
	ErrParse       = errors.New("summarization response unreadable")
)

// FallbackMessage is shown when nothing more specific can be said.
const FallbackMessage = "AI processing failed - please try again or check the video URL."

// ErrorKind tags where an exchange failed.
type ErrorKind int

const (
	KindTransport ErrorKind = iota + 1
	KindApplication
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindApplication:
		return "application"
	case KindParse:
		return "parse"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ExchangeError is the only error Summarize returns.
type ExchangeError struct {
	Kind ErrorKind
	// StatusCode is the upstream HTTP status, zero if no response arrived.
	StatusCode int
	// Message is the upstream-supplied text for KindApplication.
	Message string
	Err     error
}

func (e *ExchangeError) Error() string {
	msg := e.Kind.String() + " error"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

func (e *ExchangeError) Is(target error) bool {
	switch e.Kind {
	case KindTransport:
		return target == ErrTransport
	case KindApplication:
		return target == ErrApplication
	case KindParse:
		return target == ErrParse
	}
	return false
}

// UserMessage is the text persisted in the error slot.
func (e *ExchangeError) UserMessage() string {
	switch e.Kind {
	case KindTransport:
		return FallbackMessage
	case KindApplication:
		if e.Message != "" {
			return e.Message
		}
		return statusMessage(e.StatusCode)
	case KindParse:
		if e.StatusCode != 0 && !isSuccess(e.StatusCode) {
			return statusMessage(e.StatusCode) + ". Please check server logs."
		}
		return FallbackMessage
	default:
		return FallbackMessage
	}
}

// Record converts the error into its persisted form.
func (e *ExchangeError) Record() model.ErrorRecord {
	return model.ErrorRecord{Error: e.UserMessage()}
}

// AsExchangeError returns err as an *ExchangeError, wrapping anything else as
// a transport failure.
func AsExchangeError(err error) *ExchangeError {
	var xerr *ExchangeError
	if errors.As(err, &xerr) {
		return xerr
	}
	return &ExchangeError{Kind: KindTransport, Err: err}
}

func statusMessage(status int) string {
	return fmt.Sprintf("Request failed with status %d", status)
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
