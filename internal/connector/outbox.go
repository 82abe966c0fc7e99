// ABOUTME: Posts rendered messages to the Slack channel of a conversation
// ABOUTME: The first message after a rating click replaces the rated message

package connector

import (
	"context"
	"fmt"

	"github.com/2389/slack-connector/internal/render"
	"github.com/2389/slack-connector/internal/session"
)

// Poster delivers messages to a Slack channel.
type Poster interface {
	Send(ctx context.Context, channel string, msg *render.Message, updateTS string) error
}

type replyTarget struct {
	updateTS string
}

type replyTargetKey struct{}

func withUpdate(ctx context.Context, ts string) context.Context {
	return context.WithValue(ctx, replyTargetKey{}, &replyTarget{updateTS: ts})
}

// outbox addresses messages by the conversation identity.
type outbox struct {
	poster Poster
}

func (o outbox) Send(ctx context.Context, state *session.State, msg *render.Message) error {
	channel, _, ok := session.ParseExternalID(state.ID())
	if !ok {
		return fmt.Errorf("no Slack channel for %q", state.ID())
	}

	var ts string
	if t, ok := ctx.Value(replyTargetKey{}).(*replyTarget); ok && t.updateTS != "" {
		ts, t.updateTS = t.updateTS, ""
	}
	return o.poster.Send(ctx, channel, msg, ts)
}
