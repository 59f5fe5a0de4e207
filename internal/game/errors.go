package game

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable tag carried by every core error.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindGameFull            Kind = "game_full"
	KindDuplicateSubmission Kind = "duplicate_submission"
	KindAlreadyRevealed     Kind = "already_revealed"
	KindNotRevealed         Kind = "not_revealed"
	KindPersistence         Kind = "persistence_error"
	KindConflict            Kind = "conflict"
)

// Error is returned by the state machine and the stores. Two errors match
// under errors.Is when their kinds match.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "game not found"}
	ErrForbidden           = &Error{Kind: KindForbidden, Message: "not a participant of this game"}
	ErrGameFull            = &Error{Kind: KindGameFull, Message: "game is full"}
	ErrDuplicateSubmission = &Error{Kind: KindDuplicateSubmission, Message: "prediction already submitted"}
	ErrAlreadyRevealed     = &Error{Kind: KindAlreadyRevealed, Message: "predictions already revealed"}
	ErrNotRevealed         = &Error{Kind: KindNotRevealed, Message: "predictions not revealed yet"}
	ErrConflict            = &Error{Kind: KindConflict, Message: "game was modified concurrently"}
	ErrPersistence         = &Error{Kind: KindPersistence, Message: "game storage unavailable"}

	// ErrCodeTaken is returned by Store.Create when the code already exists.
	ErrCodeTaken = errors.New("game code already in use")
)

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func persistenceError(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf reports the kind of err, or "" when err is not a core error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of a core error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
