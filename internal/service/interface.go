package service

import (
	"context"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
)

// SendInput is the client-supplied part of a chat message.
type SendInput struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
	Kind string `json:"kind" validate:"required,sendable_kind"`
}

// PresenceService defines the interface for lobby presence and messaging.
type PresenceService interface {
	// Join registers a participant and announces the arrival.
	Join(ctx context.Context, rawName string) error

	// Send appends a message from an existing participant and refreshes
	// the sender's activity.
	Send(ctx context.Context, from string, in SendInput) error

	// Heartbeat refreshes the caller's activity.
	Heartbeat(ctx context.Context, identity string) error

	// Participants returns everyone currently present.
	Participants(ctx context.Context) ([]domain.Participant, error)

	// Messages returns up to rawLimit messages visible to viewer, newest first.
	Messages(ctx context.Context, viewer, rawLimit string) ([]domain.Message, error)
}
