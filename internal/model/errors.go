package model

import "errors"

var (
	// Hook configuration errors
	ErrServiceNotAvailable = errors.New("Service not available")

	// Auth related errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenExpired       = errors.New("token expired")

	// Record related errors
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrEmailExists       = errors.New("Email already exists")
	ErrPasswordMismatch  = errors.New("Passwords do not match")
	ErrDocumentNotFound  = errors.New("document not found")

	// Wizard related errors
	ErrStepInvalid   = errors.New("step has invalid fields")
	ErrStepLocked    = errors.New("step is not reachable yet")
	ErrNotOnLastStep = errors.New("submit is only available on the last step")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
