// ABOUTME: Inbound event model and classification
// ABOUTME: Classify picks exactly one Kind using a fixed predicate order

package inbound

import (
	"encoding/json"
)

// Kind is the semantic kind of an inbound event.
type Kind int

const (
	KindNone Kind = iota
	KindPlainText
	KindButton
	KindQuickReply
	KindSticker
	KindAttachment
)

func (k Kind) String() string {
	switch k {
	case KindPlainText:
		return "plain_text"
	case KindButton:
		return "button"
	case KindQuickReply:
		return "quick_reply"
	case KindSticker:
		return "sticker"
	case KindAttachment:
		return "attachment"
	default:
		return "none"
	}
}

// Event is a Slack message object or a click rewritten into one.
type Event struct {
	Type        string          `json:"type"`
	Subtype     string          `json:"subtype"`
	Text        json.RawMessage `json:"text"`
	User        string          `json:"user"`
	Channel     string          `json:"channel"`
	ClientMsgID string          `json:"client_msg_id"`
	BotProfile  json.RawMessage `json:"bot_profile"`
	ActionID    string          `json:"action_id"`
	Value       string          `json:"value"`
	Files       []File          `json:"files"`
	Message     *Embedded       `json:"message"`
}

// Embedded is the nested message carried by quick replies, stickers and
// attachments.
type Embedded struct {
	QuickReply  *QuickReply     `json:"quick_reply"`
	Attachments []Attachment    `json:"attachments"`
	StickerID   json.RawMessage `json:"sticker_id"`
}

// QuickReply holds the JSON-encoded payload of a click.
type QuickReply struct {
	Payload string `json:"payload"`
}

// Attachment is a shared asset referenced by URL.
type Attachment struct {
	Payload struct {
		URL string `json:"url"`
	} `json:"payload"`
}

// File is a file shared alongside a message.
type File struct {
	URLPrivate string `json:"url_private"`
	FileType   string `json:"filetype"`
	Name       string `json:"name"`
}

// HasText reports whether the event carries a text field, even an empty one.
func (e *Event) HasText() bool {
	_, ok := e.TextValue()
	return ok
}

// TextValue returns the event text. Block Kit actions carry their label as
// an object under the same key; those do not count as text.
func (e *Event) TextValue() (string, bool) {
	if !hasValue(e.Text) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(e.Text, &s); err != nil {
		return "", false
	}
	return s, true
}

// Classify returns the kind of ev. The order of the checks matters: a
// quick reply also looks like a generic message and a sticker also carries
// attachments.
func Classify(ev *Event) Kind {
	if ev == nil {
		return KindNone
	}
	for _, c := range classifiers {
		if c.match(ev) {
			return c.kind
		}
	}
	return KindNone
}

var classifiers = []struct {
	kind  Kind
	match func(*Event) bool
}{
	{KindPlainText, func(e *Event) bool { return e.HasText() }},
	{KindButton, func(e *Event) bool { return e.Type == "button" }},
	{KindQuickReply, func(e *Event) bool { return e.Message != nil && e.Message.QuickReply != nil }},
	{KindSticker, func(e *Event) bool {
		return e.Message != nil && e.Message.Attachments != nil && hasValue(e.Message.StickerID)
	}},
	{KindAttachment, func(e *Event) bool {
		return e.Message != nil && e.Message.Attachments != nil && !hasValue(e.Message.StickerID)
	}},
}

func hasValue(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
