// ABOUTME: Tests for inbound event classification
// ABOUTME: Verifies the fixed predicate order across overlapping payload shapes

package inbound

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvent(t *testing.T, raw string) *Event {
	t.Helper()
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	return &ev
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{"plain text", `{"text":"hi"}`, KindPlainText},
		{"empty text is still text", `{"text":""}`, KindPlainText},
		{"text wins over button", `{"text":"hi","type":"button"}`, KindPlainText},
		{"button", `{"type":"button","value":"1"}`, KindButton},
		{"button wins over quick reply", `{"type":"button","message":{"quick_reply":{"payload":"x"}}}`, KindButton},
		{"quick reply", `{"message":{"quick_reply":{"payload":"x"}}}`, KindQuickReply},
		{"quick reply wins over attachments", `{"message":{"quick_reply":{"payload":"x"},"attachments":[]}}`, KindQuickReply},
		{"sticker", `{"message":{"attachments":[{"payload":{"url":"s"}}],"sticker_id":369239263222822}}`, KindSticker},
		{"attachment", `{"message":{"attachments":[{"payload":{"url":"a"}}]}}`, KindAttachment},
		{"empty attachments list", `{"message":{"attachments":[]}}`, KindAttachment},
		{"object text is not text", `{"text":{"type":"plain_text"}}`, KindNone},
		{"nothing", `{"type":"message"}`, KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(decodeEvent(t, tt.raw)))
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Equal(t, KindNone, Classify(nil))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "quick_reply", KindQuickReply.String())
	assert.Equal(t, "none", Kind(99).String())
}
