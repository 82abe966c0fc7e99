// ABOUTME: Tests for the live chat contract types
// ABOUTME: Checks the escalation payload shape and the Unavailable client

package livechat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_JSON(t *testing.T) {
	req := ChatRequest{
		RoomID: 3,
		User: User{
			Name:       "Ada",
			Contact:    "ada@example.com",
			ExternalID: "slack-C1-U1",
			ExtraInfo:  map[string]any{"source": "slack"},
		},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roomId":3,"user":{"name":"Ada","contact":"ada@example.com","externalId":"slack-C1-U1","extraInfo":{"source":"slack"}}}`, string(data))
}

func TestUnavailable(t *testing.T) {
	var c Client = Unavailable{}

	ok, err := c.AgentsAvailable(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.OpenChat(context.Background(), ChatRequest{RoomID: 1})
	assert.ErrorIs(t, err, ErrUnavailable)

	err = c.SendMessage(context.Background(), "chat-1", Message{Text: "hello"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
