package domain

import "errors"

// ErrDivideByZero is returned when the pending operation divides by zero.
// The state that produced it is left untouched.
var ErrDivideByZero = errors.New("cannot divide by zero")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidDigit is returned when a digit input is not in 0-9.
var ErrInvalidDigit = errors.New("invalid digit")

// ErrUnknownOperator is returned when an operator name or symbol is not recognised.
var ErrUnknownOperator = errors.New("unknown operator")

// ErrUnknownAction is returned when an action name cannot be mapped to an Input.
var ErrUnknownAction = errors.New("unknown action")

// ErrUnknownKey is returned when a key press has no binding.
var ErrUnknownKey = errors.New("unknown key")

// ErrInvalidSessionID is returned when a session ID is empty or contains characters
// that are unsafe as a file name or key segment.
var ErrInvalidSessionID = errors.New("invalid session id")
