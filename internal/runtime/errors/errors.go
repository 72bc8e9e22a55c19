package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrDispatcherRequired   = sterrors.New("relay: dispatcher is required")
	ErrMethodRequired       = sterrors.New("relay: method is required")
	ErrAddressRequired      = sterrors.New("relay: destination address is required")
	ErrUnknownMessageType   = sterrors.New("relay: unknown message type")
	ErrConfigRequired       = sterrors.New("relay: configuration is required")
	ErrLoggerRequired       = sterrors.New("relay: logger is required")
	ErrTransportRequired    = sterrors.New("relay: transport is required")
	ErrConnectionRequired   = sterrors.New("relay: connection is required")
	ErrUnexpectedResultType = sterrors.New("relay: unexpected result type")
	ErrUnknownCodec         = sterrors.New("relay: unknown codec")
)

// ConfigValidationError wraps the joined errors returned by Config.Validate.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("relay: invalid configuration: %v", e.Err)
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err, or returns nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
