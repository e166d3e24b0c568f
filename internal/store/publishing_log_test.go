package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/pubsub"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	events   []*pubsub.Event
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingLog struct{ MessageLog }

func (failingLog) Append(context.Context, domain.Message) error {
	return domain.ErrStoreUnavailable
}

func TestWithPublisher_Announces_Appended_Message(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mem := NewMemoryStore()
	pub := &recordingPublisher{}
	log := WithPublisher(mem, pub, "")

	// When
	msg := domain.NewMessage("Alice", "Bob", "hi", domain.KindDirected, "10:00:00")
	req.NoError(log.Append(ctx, msg))

	// Then
	req.Equal([]string{pubsub.ChannelChatMessages}, pub.channels)
	req.Len(pub.events, 1)
	req.Equal(pubsub.EventMessageAppended, pub.events[0].Type)
	req.Equal("Alice", pub.events[0].Key)
	var got domain.Message
	req.NoError(json.Unmarshal(pub.events[0].Payload, &got))
	req.Equal(msg, got)

	stored, err := log.Recent(ctx, "Bob", 1)
	req.NoError(err)
	req.Equal([]domain.Message{msg}, stored)
}

func TestWithPublisher_Publish_Failure_Does_Not_Fail_Append(t *testing.T) {
	req := require.New(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	log := WithPublisher(NewMemoryStore(), pub, "custom")

	req.NoError(log.Append(context.Background(), domain.NewStatus("Alice", domain.StatusEntered, "10:00:00")))
	req.Equal([]string{"custom"}, pub.channels)
}

func TestWithPublisher_Skips_Publish_When_Append_Fails(t *testing.T) {
	req := require.New(t)
	pub := &recordingPublisher{}
	log := WithPublisher(failingLog{}, pub, "")

	err := log.Append(context.Background(), domain.NewStatus("Alice", domain.StatusEntered, "10:00:00"))
	req.ErrorIs(err, domain.ErrStoreUnavailable)
	req.Empty(pub.events)
}
