package apperr

import (
  "errors"
  "fmt"
  "net/http"
)

type Kind int

const (
  KindInternal Kind = iota
  KindConflict
  KindNotFound
  KindUnauthorized
  // KindInvalidCredentials is the Unauthorized class raised by login; rendered as 400.
  KindInvalidCredentials
  KindInvalidOtp
  KindValidation
  KindUpstream
)

func (k Kind) String() string {
  switch k {
  case KindConflict:
    return "conflict"
  case KindNotFound:
    return "not_found"
  case KindUnauthorized:
    return "unauthorized"
  case KindInvalidCredentials:
    return "invalid_credentials"
  case KindInvalidOtp:
    return "invalid_otp"
  case KindValidation:
    return "validation_failed"
  case KindUpstream:
    return "upstream_failure"
  default:
    return "internal"
  }
}

type Error struct {
  Kind    Kind
  Message string
  Err     error
}

func (e *Error) Error() string {
  switch {
  case e.Message != "" && e.Err != nil:
    return fmt.Sprintf("%s: %v", e.Message, e.Err)
  case e.Message != "":
    return e.Message
  case e.Err != nil:
    return e.Err.Error()
  default:
    return e.Kind.String()
  }
}

func (e *Error) Unwrap() error {
  return e.Err
}

func New(kind Kind, msg string) *Error {
  return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
  return &Error{Kind: kind, Message: msg, Err: err}
}

func Conflict(msg string) error { return New(KindConflict, msg) }

func NotFound(msg string) error { return New(KindNotFound, msg) }

func Unauthorized(msg string) error { return New(KindUnauthorized, msg) }

func InvalidCredentials(msg string) error { return New(KindInvalidCredentials, msg) }

func InvalidOtp() error { return New(KindInvalidOtp, "Invalid OTP") }

func Validation(msg string) error { return New(KindValidation, msg) }

func Upstream(msg string, err error) error { return Wrap(KindUpstream, msg, err) }

func Internal(msg string, err error) error { return Wrap(KindInternal, msg, err) }

// KindOf reports the kind of the first *Error in err's chain; untyped errors are Internal.
func KindOf(err error) Kind {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Kind
  }
  return KindInternal
}

func Is(err error, kind Kind) bool {
  if err == nil {
    return false
  }
  return KindOf(err) == kind
}

func HTTPStatus(err error) int {
  switch KindOf(err) {
  case KindConflict:
    return http.StatusConflict
  case KindNotFound:
    return http.StatusNotFound
  case KindUnauthorized:
    return http.StatusUnauthorized
  case KindInvalidCredentials, KindInvalidOtp, KindValidation:
    return http.StatusBadRequest
  default:
    return http.StatusInternalServerError
  }
}

// Message is the caller-facing text for err.
func Message(err error) string {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Error()
  }
  return err.Error()
}
