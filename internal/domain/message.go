package domain

import (
	"github.com/oklog/ulid/v2"
)

// Kind classifies a chat event.
type Kind string

const (
	KindStatus    Kind = "status"
	KindBroadcast Kind = "broadcast-message"
	KindDirected  Kind = "directed-message"
	KindPublic    Kind = "public-message"
)

// Everyone is the reserved recipient meaning "all current participants".
const Everyone = "everyone"

// Status texts appended on presence changes.
const (
	StatusEntered = "entered"
	StatusLeft    = "left"
)

// legacyKinds maps the wire values older clients still send.
var legacyKinds = map[string]Kind{
	"message":         KindBroadcast,
	"private_message": KindDirected,
	"public":          KindPublic,
}

// ParseKind resolves a wire value, accepting the legacy aliases.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindStatus, KindBroadcast, KindDirected, KindPublic:
		return k, true
	}
	k, ok := legacyKinds[s]
	return k, ok
}

// Sendable reports whether clients may post messages of this kind.
func (k Kind) Sendable() bool {
	return k == KindBroadcast || k == KindDirected
}

// Message is an immutable log entry. Time is a display stamp only; ordering
// comes from the log's append order.
type Message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
	Time string `json:"time"`
}

// NewMessage builds a message with a fresh ULID.
func NewMessage(from, to, text string, kind Kind, stamp string) Message {
	return Message{
		ID:   ulid.Make().String(),
		From: from,
		To:   to,
		Text: text,
		Kind: kind,
		Time: stamp,
	}
}

// NewStatus builds a status event addressed to everyone.
func NewStatus(name, text, stamp string) Message {
	return NewMessage(name, Everyone, text, KindStatus, stamp)
}
