package ports

import (
	"context"

	"github.com/aretw0/nexusmind/pkg/domain"
)

// SessionStore persists session records once a run has finished.
// The graph store itself has no persistence; a saved session carries its graph
// as a serialized snapshot.
type SessionStore interface {
	// Save persists the session under its own ID, replacing any earlier record.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes a session. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
