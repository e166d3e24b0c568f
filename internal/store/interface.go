package store

import (
	"context"
	"time"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
)

// ParticipantStore is the authoritative set of present participants.
// Failures of the backing store are wrapped with domain.ErrStoreUnavailable.
type ParticipantStore interface {
	// Join inserts name with lastActivity = now, or returns domain.ErrConflict.
	Join(ctx context.Context, name string, now time.Time) error

	// Touch sets lastActivity = now, or returns domain.ErrNotFound.
	Touch(ctx context.Context, name string, now time.Time) error

	// Get returns the participant, or domain.ErrNotFound.
	Get(ctx context.Context, name string) (domain.Participant, error)

	// List returns a point-in-time snapshot of every participant.
	List(ctx context.Context) ([]domain.Participant, error)

	// ExpireOne atomically removes a single participant whose lastActivity is
	// strictly before threshold and returns it. domain.ErrNotFound means no
	// participant qualified, including when a concurrent Touch won the race.
	ExpireOne(ctx context.Context, threshold time.Time) (domain.Participant, error)
}

// MessageLog is the append-only sequence of chat events.
type MessageLog interface {
	// Append adds msg after every message appended before it.
	Append(ctx context.Context, msg domain.Message) error

	// Recent returns up to limit messages visible to viewer, newest first.
	// limit must be at least 1.
	Recent(ctx context.Context, viewer string, limit int) ([]domain.Message, error)
}

// Store bundles both collections behind one connection.
type Store interface {
	ParticipantStore
	MessageLog
	Close() error
}
