// Package errors provides the coded error type used across the chainstate module and utilities for
// categorizing those errors.
package errors

import (
	"context"
	"errors"
)

// protocolViolations are the codes a peer can cause by sending bad data. The engine stays usable
// after any of them.
var protocolViolations = map[ERR]struct{}{
	ERR_HEADER_INVALID:          {},
	ERR_CHECKPOINT_MISMATCH:     {},
	ERR_MERKLE_ROOT_INVALID:     {},
	ERR_BLOCK_INVALID:           {},
	ERR_TX_INVALID:              {},
	ERR_TX_DUPLICATE:            {},
	ERR_TX_INVALID_DOUBLE_SPEND: {},
	ERR_SCRIPT_INVALID:          {},
}

// IsProtocolViolation reports whether err, or any *Error it wraps, carries a protocol violation code.
func IsProtocolViolation(err error) bool {
	for current := err; current != nil; {
		var tErr *Error
		if !As(current, &tErr) || tErr == nil {
			return false
		}

		if _, ok := protocolViolations[tErr.Code()]; ok {
			return true
		}

		current = tErr.WrappedErr()
	}

	return false
}

// IsFatal reports whether err is a configuration or internal error that must stop the operation.
func IsFatal(err error) bool {
	var tErr *Error
	if !As(err, &tErr) || tErr == nil {
		return false
	}

	switch tErr.Code() {
	case ERR_CONFIGURATION, ERR_NOT_IMPLEMENTED, ERR_UTXO_CONSISTENCY, ERR_STORAGE_ERROR:
		return true
	default:
		return false
	}
}

// IsContextError determines if an error is related to context cancellation or timeout.
func IsContextError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// GetErrorCategory returns a short category name for err, used in logs and metric labels.
//
// Returns one of: "none", "context", "protocol", "unsupported", "fatal", "not_found", "other".
func GetErrorCategory(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsContextError(err):
		return "context"
	case IsProtocolViolation(err):
		return "protocol"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case IsFatal(err):
		return "fatal"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBlockNotFound):
		return "not_found"
	default:
		return "other"
	}
}
