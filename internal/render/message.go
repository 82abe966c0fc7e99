// ABOUTME: Rendered message type and Block Kit construction helpers
// ABOUTME: Wraps slack-go block builders with the conventions used by every renderer

package render

import (
	"bytes"
	"encoding/json"

	"github.com/slack-go/slack"
)

// Action ids and prefixes attached to interactive elements.
const (
	ActionField     = "ACTION_FIELD"
	RatingsPrefix   = "RATINGS_"
	RelatedPrefix   = "RELATED_"
	defaultImageAlt = "image"
)

// maxButtonValue is Slack's limit on a button's value.
const maxButtonValue = 2000

// Message is one Slack message ready to post.
type Message struct {
	// Text is the notification shown in push alerts
	Text        string
	Blocks      []slack.Block
	Attachments []slack.Block
}

func newMessage(notification string, blocks ...slack.Block) *Message {
	return &Message{Text: notification, Blocks: blocks}
}

func (m *Message) add(blocks ...slack.Block) {
	m.Blocks = append(m.Blocks, blocks...)
}

func textBlock(mrkdwn string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, mrkdwn, false, false), nil, nil)
}

func textWithAccessory(mrkdwn string, element slack.BlockElement) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, mrkdwn, false, false),
		nil,
		slack.NewAccessory(element),
	)
}

func button(label, value, actionID string) *slack.ButtonBlockElement {
	return slack.NewButtonBlockElement(actionID, value, slack.NewTextBlockObject(slack.PlainTextType, label, true, false))
}

func styledButton(label, value, actionID, style string) *slack.ButtonBlockElement {
	b := button(label, value, actionID)
	switch slack.Style(style) {
	case slack.StylePrimary, slack.StyleDanger:
		b = b.WithStyle(slack.Style(style))
	}
	return b
}

func urlButton(label, url string) *slack.ButtonBlockElement {
	b := button(label, "", "")
	b.URL = url
	return b
}

func buttons(elements ...*slack.ButtonBlockElement) *slack.ActionBlock {
	set := make([]slack.BlockElement, 0, len(elements))
	for _, e := range elements {
		set = append(set, e)
	}
	return slack.NewActionBlock("", set...)
}

func imageBlock(src, alt string) *slack.ImageBlock {
	if alt == "" {
		alt = defaultImageAlt
	}
	return slack.NewImageBlock(src, alt, "", slack.NewTextBlockObject(slack.PlainTextType, alt, true, false))
}

// payload encodes a click payload without HTML escaping so it stays
// readable and short inside the 2000 character button value.
func payload(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
