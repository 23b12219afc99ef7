// Package common defines shared sentinel errors used across the timesheet
// client layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Session-state precondition violations. These are surfaced to the
	// caller directly, never queued or retried.
	ErrNoActiveSession   = errors.New("no active clock session")
	ErrNoActiveTimesheet = errors.New("no active timesheet")

	// Auth gate errors.
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
