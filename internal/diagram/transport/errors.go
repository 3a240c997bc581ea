package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired is returned on any 401. The stored token is already cleared.
	ErrSessionExpired = errors.New("session expired, please login again")
	// ErrRemoteConflict is returned when the server holds a newer revision than the batch was built on.
	ErrRemoteConflict = errors.New("remote document changed since last sync")
)

// TransportError is any other failed exchange: a non-2xx status or no response at all.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("unable to communicate with the server: %v", e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
