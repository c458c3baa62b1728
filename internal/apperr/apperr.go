// Package apperr is chessd's error taxonomy (spec.md §7), mapped to gRPC
// status codes at the rpcservice boundary.
package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Kind is one of the fixed error categories spec.md §7 names.
type Kind string

const (
	IllegalMove              Kind = "illegal_move"
	NothingToUndo             Kind = "nothing_to_undo"
	NothingToRedo             Kind = "nothing_to_redo"
	InvalidFen                Kind = "invalid_fen"
	InvalidPhaseTransition    Kind = "invalid_phase_transition"
	EngineNotConfigured       Kind = "engine_not_configured"
	EngineProtocol            Kind = "engine_protocol"
	PersistenceUnavailable    Kind = "persistence_unavailable"
	DefaultPositionProtected  Kind = "default_position_protected"
	NotFound                  Kind = "not_found"
	Internal                  Kind = "internal"
)

// Error is an apperr-classified error, optionally wrapping a cause (Wrap sets
// one, New does not).
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// New constructs an Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// Wrap constructs an Error of the given kind wrapping a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, msg: msg, err: err}
}

// KindOf extracts the Kind from err, defaulting to Internal when err is not
// (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// GRPCCode maps a Kind onto the gRPC status code the rpcservice layer
// returns to callers.
func GRPCCode(k Kind) codes.Code {
	switch k {
	case IllegalMove, InvalidFen, InvalidPhaseTransition, DefaultPositionProtected:
		return codes.InvalidArgument
	case NothingToUndo, NothingToRedo, EngineNotConfigured:
		return codes.FailedPrecondition
	case EngineProtocol, PersistenceUnavailable:
		return codes.Unavailable
	case NotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
