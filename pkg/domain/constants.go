package domain

import "time"

const (
	// Precision is the number of decimal places every arithmetic result is rounded to.
	Precision = 8

	// MaxDisplayLength is the longest plain decimal string shown before switching to exponent form.
	MaxDisplayLength = 12

	// ExponentDigits is the number of fraction digits used in exponent form.
	ExponentDigits = 6

	// DefaultErrorClearDelay is how long an error stays on screen before the display auto-clears.
	DefaultErrorClearDelay = 2 * time.Second

	// ErrorDisplay replaces the current line while a fault is latched.
	ErrorDisplay = "Error"
)
