package engine

import (
	"errors"
	"fmt"
)

var (
	ErrFormat           = errors.New("malformed mission input")
	ErrDuplicateLanding = errors.New("rovers landed on top of each other")
	ErrCollision        = errors.New("a rover ran into another rover")
	ErrOutOfBounds      = errors.New("a rover drove off the edge of the plateau")
	ErrCrossedOwnPath   = errors.New("a rover crossed its own path")
)

// FormatError is returned when a plateau, position or commands line cannot
// be parsed. Input holds the raw line.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %s: %q", ErrFormat, e.Reason, e.Input)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// DuplicateLandingError lists the cells claimed by more than one rover.
type DuplicateLandingError struct {
	Cells []Position
}

func (e *DuplicateLandingError) Error() string {
	return fmt.Sprintf("%v at %v", ErrDuplicateLanding, e.Cells)
}

func (e *DuplicateLandingError) Is(target error) bool {
	return target == ErrDuplicateLanding
}

// MoveError is a fatal advance. Kind is one of ErrCollision, ErrOutOfBounds
// or ErrCrossedOwnPath.
type MoveError struct {
	Kind   error
	Rover  int
	From   Position
	Target Position
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("%v: rover %d moving %v -> %v, MISSION FAILED", e.Kind, e.Rover+1, e.From, e.Target)
}

func (e *MoveError) Unwrap() error {
	return e.Kind
}

// ErrorCode maps an engine error to a short machine-friendly code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCollision):
		return "collision"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrCrossedOwnPath):
		return "crossed_own_path"
	case errors.Is(err, ErrDuplicateLanding):
		return "duplicate_landing"
	case errors.Is(err, ErrFormat):
		return "format"
	}
	return "internal"
}
