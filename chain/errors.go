package chain

import (
	"errors"
	"fmt"
)

// Error kinds reported by the adapter. Match them with errors.Is.
var (
	ErrSignerUnavailable = errors.New("signer unavailable")
	ErrSigningFailed     = errors.New("signing failed")
	ErrBroadcastFailed   = errors.New("broadcast failed")
)

// ErrTxNotFound is returned by Node.Tx while a transaction is not in a block yet.
var ErrTxNotFound = errors.New("tx not found")

// Error carries one of the kinds above plus the step that failed.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func signerUnavailable(op string, err error) error {
	return &Error{Kind: ErrSignerUnavailable, Op: op, Err: err}
}

func signingFailed(op string, err error) error {
	return &Error{Kind: ErrSigningFailed, Op: op, Err: err}
}

func broadcastFailed(op string, err error) error {
	return &Error{Kind: ErrBroadcastFailed, Op: op, Err: err}
}
