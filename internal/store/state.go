package store

import "github.com/blackwell-systems/bookstorectl/internal/apperr"

// State is the store's operation status as seen by the presentation layer.
type State struct {
	// Busy is true while an upload, delete or refresh is in flight.
	Busy bool
	// Op names the in-flight operation, or the last one to finish.
	Op string
	// LastError is the most recent failure, cleared by a successful
	// operation or DismissError.
	LastError error
}

// LastKind returns the kind of LastError, or "" when there is none.
func (s State) LastKind() apperr.Kind {
	return apperr.KindOf(s.LastError)
}
