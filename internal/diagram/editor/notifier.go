package editor

import (
	"github.com/rs/zerolog"
)

// Notifier receives sync failures. Neither call may block for long; they run
// on the dispatcher goroutine.
type Notifier interface {
	// SessionExpired means the token was rejected and cleared; the user must sign in again.
	SessionExpired(docID string)
	TransportFailed(docID string, err error)
}

// LogNotifier reports failures through zerolog.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) SessionExpired(docID string) {
	n.Log.Warn().Str("document_id", docID).Msg("session expired, please login again")
}

func (n LogNotifier) TransportFailed(docID string, err error) {
	n.Log.Error().Err(err).Str("document_id", docID).Msg("patch sync failed")
}
