package store

import (
	"context"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
	pkglog "github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/log"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/pubsub"
)

// publishingLog fans every appended message out to the event bus.
// Publishing is best effort: the log append is the source of truth.
type publishingLog struct {
	MessageLog
	pub     pubsub.Publisher
	channel string
}

// WithPublisher decorates log so successful appends are announced on channel.
func WithPublisher(log MessageLog, pub pubsub.Publisher, channel string) MessageLog {
	if channel == "" {
		channel = pubsub.ChannelChatMessages
	}
	return &publishingLog{MessageLog: log, pub: pub, channel: channel}
}

func (p *publishingLog) Append(ctx context.Context, msg domain.Message) error {
	if err := p.MessageLog.Append(ctx, msg); err != nil {
		return err
	}

	l := pkglog.Ctx(ctx)
	event, err := pubsub.NewEvent(pubsub.EventMessageAppended, msg.From, msg)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldMessageID, msg.ID).Msg("failed to encode message event")
		return nil
	}
	if err := p.pub.Publish(ctx, p.channel, event); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldMessageID, msg.ID).Msg("failed to publish message event")
	}
	return nil
}
