// ABOUTME: Tests for the inbound dedup guard
// ABOUTME: Covers bot echoes, repeated ids, trigger ids and history eviction

package dedupe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/slack-connector/internal/inbound"
	"github.com/2389/slack-connector/internal/session"
)

func message(t *testing.T, clientMsgID string) *inbound.Envelope {
	t.Helper()
	body := fmt.Sprintf(`{"type":"event_callback","event":{"type":"message","text":"hi","user":"U1","channel":"C1","client_msg_id":%q}}`, clientMsgID)
	env, err := inbound.Parse([]byte(body))
	require.NoError(t, err)
	return env
}

func TestShouldHandle_NewIDRecorded(t *testing.T) {
	state := session.New("slack-C1-U1")

	assert.True(t, ShouldHandle(message(t, "m1"), state))
	assert.Equal(t, []string{"m1"}, state.MessageIDs)
}

func TestShouldHandle_RepeatRejected(t *testing.T) {
	state := session.New("slack-C1-U1")

	require.True(t, ShouldHandle(message(t, "m1"), state))
	assert.False(t, ShouldHandle(message(t, "m1"), state))
	assert.Equal(t, []string{"m1"}, state.MessageIDs)
}

func TestShouldHandle_RepeatWithTriggerAccepted(t *testing.T) {
	state := session.New("slack-C1-U1")
	require.True(t, ShouldHandle(message(t, "m1"), state))

	env := message(t, "m1")
	env.TriggerID = "123.456.abc"
	assert.True(t, ShouldHandle(env, state))
	assert.Equal(t, []string{"m1"}, state.MessageIDs)
}

func TestShouldHandle_NoIDAlwaysAccepted(t *testing.T) {
	state := session.New("slack-C1-U1")
	env, err := inbound.Parse([]byte(`{"type":"event_callback","event":{"type":"message","text":"hi","user":"U1","channel":"C1"}}`))
	require.NoError(t, err)

	for range 3 {
		assert.True(t, ShouldHandle(env, state))
	}
	assert.Empty(t, state.MessageIDs)
}

func TestShouldHandle_InteractiveClickAccepted(t *testing.T) {
	state := session.New("slack-C1-U1")
	env, err := inbound.Parse([]byte(`{"type":"block_actions","trigger_id":"t1","user":{"id":"U1"},"channel":{"id":"C1"},"actions":[{"type":"button","action_id":"a","value":"{\"option\":1}"}]}`))
	require.NoError(t, err)

	assert.True(t, ShouldHandle(env, state))
	assert.True(t, ShouldHandle(env, state))
}

func TestShouldHandle_BotEchoRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bot profile", `{"event":{"type":"message","text":"hi","client_msg_id":"m1","bot_profile":{"id":"B1"}}}`},
		{"bot message subtype", `{"event":{"type":"message","subtype":"bot_message","text":"hi"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := inbound.Parse([]byte(tt.body))
			require.NoError(t, err)

			state := session.New("slack-C1-U1")
			assert.False(t, ShouldHandle(env, state))
			assert.Empty(t, state.MessageIDs)
		})
	}
}

func TestShouldHandle_OldestEvicted(t *testing.T) {
	state := session.New("slack-C1-U1")

	for i := range session.MaxMessageIDs + 1 {
		require.True(t, ShouldHandle(message(t, fmt.Sprintf("m%d", i)), state))
	}
	require.Len(t, state.MessageIDs, session.MaxMessageIDs)
	assert.Equal(t, "m1", state.MessageIDs[0])

	assert.True(t, ShouldHandle(message(t, "m0"), state), "evicted id is accepted again")
	assert.False(t, ShouldHandle(message(t, "m10"), state), "recent id is still rejected")
}
