// Package store persists session records keyed by the provider's session id.
//
// Writes are conditional: Put succeeds only when the record's Version matches
// the version last read (0 for a record that does not exist yet). Concurrent
// writers on the same session id therefore cannot both win a read-then-write
// pair; the loser gets ErrConflict and must re-read.
package store

import (
	"context"
	"errors"

	"coin-gateway/internal/models"
)

var ErrConflict = errors.New("session version conflict")

type Store interface {
	// Get returns the record for sessionID, or (nil, nil) when no record
	// exists. Absence is a valid state, distinct from paid and redeemed.
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// Put writes sess under sessionID if the stored version still equals
	// sess.Version. On success the stored version is incremented.
	Put(ctx context.Context, sessionID string, sess models.Session) error

	Close() error
}

// Records are namespaced in the underlying map.
func key(sessionID string) string {
	return "session:" + sessionID
}
