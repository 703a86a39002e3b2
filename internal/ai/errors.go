package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when a session operation is called out of order
	ErrInvalidState = errors.New("invalid session state")
	// ErrExitRequested is returned when "exit" is supplied as a user reply. Callers are expected to intercept it.
	ErrExitRequested = errors.New("exit requested")
)

// ConfigurationError reports a missing or unusable credential. It is raised before any network activity.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not set, please export your API key", e.Key)
}

// EndpointError reports a non-success response from a chat endpoint
type EndpointError struct {
	Status int
	Body   string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("endpoint returned status %d: %s", e.Status, e.Body)
}

// IOError reports a failure to read or write one of the session's files
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error on '%s': %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
