package sip

import "github.com/ghettovoice/sipstack/internal/errorutil"

// Error represents a SIP error.
// See [errorutil.Error].
type Error = errorutil.Error

// Common errors.
const (
	ErrInvalidArgument = errorutil.ErrInvalidArgument
)

// Request building errors.
const (
	// ErrMalformedRequest is returned when a request can not be sent, e.g. it has no Via header.
	ErrMalformedRequest Error = "malformed request"
	// ErrNoDialog is returned when an in-dialog request is requested for a transaction
	// that has not established a dialog.
	ErrNoDialog Error = "dialog not established"
	// ErrMissingContact is returned when the target of an ACK can not be determined
	// because the final response to INVITE has no Contact header.
	ErrMissingContact Error = "missing Contact header"
	// ErrTransactionNotFound is returned when the transaction stack has no state for the transaction.
	ErrTransactionNotFound Error = "transaction not found"
)

// Registry errors.
const (
	// ErrEndpointUnavailable is returned when an endpoint can not be bound or is already in use.
	ErrEndpointUnavailable Error = "endpoint unavailable"
	// ErrListenerAlreadyRegistered is returned on attempt to add the same listener twice.
	ErrListenerAlreadyRegistered Error = "listener already registered"
	// ErrListenerNotRegistered is returned on attempt to remove a listener that was not added.
	ErrListenerNotRegistered Error = "listener not registered"
	// ErrProviderStopped is returned by send operations of a provider that is not running.
	ErrProviderStopped Error = "provider stopped"
	// ErrStackClosed is returned by a closed stack.
	ErrStackClosed Error = "stack closed"
)

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}

func newMalformedRequestError(args ...any) error {
	return errorutil.NewWrapperError(ErrMalformedRequest, args...) //errtrace:skip
}

func newNoDialogError(args ...any) error {
	return errorutil.NewWrapperError(ErrNoDialog, args...) //errtrace:skip
}
