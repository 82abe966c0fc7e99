// ABOUTME: Duplicate and self-echo filter for inbound Slack events
// ABOUTME: Keeps a bounded history of client message ids in the conversation state

package dedupe

import (
	"slices"

	"github.com/2389/slack-connector/internal/inbound"
	"github.com/2389/slack-connector/internal/session"
)

// ShouldHandle reports whether env should be processed. It records new
// client message ids in state; the caller persists state afterwards.
//
// Events without a client message id cannot be deduplicated and are always
// accepted. A repeated id is accepted only when the event carries a
// trigger id, since every interactive click is a distinct user action.
func ShouldHandle(env *inbound.Envelope, state *session.State) bool {
	if env.IsBotEcho() {
		return false
	}

	id := env.ClientMsgID()
	if id == "" {
		return true
	}

	if slices.Contains(state.MessageIDs, id) {
		return env.TriggerID != ""
	}

	remember(state, id)
	return true
}

// remember appends id, dropping the oldest entries beyond the limit.
func remember(state *session.State, id string) {
	ids := append(state.MessageIDs, id)
	if over := len(ids) - session.MaxMessageIDs; over > 0 {
		ids = slices.Clone(ids[over:])
	}
	state.MessageIDs = ids
}
