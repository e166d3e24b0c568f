package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVisible(t *testing.T) {
	cases := []struct {
		name    string
		viewer  string
		msg     Message
		visible bool
	}{
		{"addressed to viewer", "Bob", Message{From: "Alice", To: "Bob", Kind: KindDirected}, true},
		{"sent by viewer", "Alice", Message{From: "Alice", To: "Bob", Kind: KindDirected}, true},
		{"broadcast", "Carol", Message{From: "Alice", To: Everyone, Kind: KindBroadcast}, true},
		{"status event", "Carol", Message{From: "Alice", To: Everyone, Kind: KindStatus}, true},
		{"public to someone else", "Carol", Message{From: "Alice", To: "Bob", Kind: KindPublic}, true},
		{"private to someone else", "Carol", Message{From: "Alice", To: "Bob", Kind: KindDirected}, false},
		{"case differs", "bob", Message{From: "Alice", To: "Bob", Kind: KindDirected}, false},
		{"prefix only", "Bo", Message{From: "Alice", To: "Bob", Kind: KindDirected}, false},
		{"everyone is a literal match", "Carol", Message{From: "Alice", To: "Everyone", Kind: KindBroadcast}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.visible, Visible(tc.viewer, tc.msg))
		})
	}
}

func TestParseKind(t *testing.T) {
	req := require.New(t)

	for raw, want := range map[string]Kind{
		"status":            KindStatus,
		"broadcast-message": KindBroadcast,
		"directed-message":  KindDirected,
		"public-message":    KindPublic,
		"message":           KindBroadcast,
		"private_message":   KindDirected,
		"public":            KindPublic,
	} {
		got, ok := ParseKind(raw)
		req.True(ok, raw)
		req.Equal(want, got, raw)
	}

	_, ok := ParseKind("shout")
	req.False(ok)
	_, ok = ParseKind("")
	req.False(ok)
}

func TestKind_Sendable(t *testing.T) {
	req := require.New(t)
	req.True(KindBroadcast.Sendable())
	req.True(KindDirected.Sendable())
	req.False(KindStatus.Sendable())
	req.False(KindPublic.Sendable())
}

func TestNewStatus(t *testing.T) {
	req := require.New(t)

	m := NewStatus("Alice", StatusEntered, "12:00:00")

	req.Equal("Alice", m.From)
	req.Equal(Everyone, m.To)
	req.Equal(StatusEntered, m.Text)
	req.Equal(KindStatus, m.Kind)
	req.Equal("12:00:00", m.Time)
	req.Len(m.ID, 26)
	req.NotEqual(m.ID, NewStatus("Alice", StatusEntered, "12:00:00").ID)
}

func TestValidationError_Unwraps(t *testing.T) {
	req := require.New(t)

	err := fmt.Errorf("join: %w", NewValidationError("name is required"))

	req.True(errors.Is(err, ErrValidation))
	var verr *ValidationError
	req.True(errors.As(err, &verr))
	req.Equal([]string{"name is required"}, verr.Details)
	req.Contains(err.Error(), "name is required")
}
