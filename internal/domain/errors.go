package domain

import "errors"

var (
	// ErrHubUnavailable is returned when the hub is not listening or is shutting down.
	ErrHubUnavailable = errors.New("hub unavailable")
	// ErrRegistrationRejected is returned for names refused by the admission policy.
	ErrRegistrationRejected = errors.New("registration rejected")
	// ErrMalformedMessage is returned for relay payloads that are not a JSON object.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrPersistenceFailure wraps failed artifact or journal writes.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrStartupFailure wraps any fatal boot step.
	ErrStartupFailure = errors.New("startup failure")
	// ErrUnknownAgent is returned when a name is not in the configured roster.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrInvalidAmount is returned for revenue amounts that would decrease the total.
	ErrInvalidAmount = errors.New("invalid revenue amount")
)
