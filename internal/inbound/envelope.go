// ABOUTME: Slack webhook body decoding
// ABOUTME: Handles JSON and form-encoded bodies and selects the message object to classify

package inbound

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// ErrUnparseable is returned when a body is neither JSON nor a form with a JSON payload.
var ErrUnparseable = errors.New("unparseable webhook body")

// Envelope is a decoded Slack webhook body. Event callbacks fill Callback;
// interactive clicks fill Actions, User, Channel and Message.
type Envelope struct {
	Type      string   `json:"type"`
	Challenge string   `json:"challenge"`
	TriggerID string   `json:"trigger_id"`
	Callback  *Event   `json:"event"`
	Actions   []Action `json:"actions"`
	User      *ref     `json:"user"`
	Channel   *ref     `json:"channel"`
	Message   *struct {
		TS string `json:"ts"`
	} `json:"message"`
}

type ref struct {
	ID string `json:"id"`
}

// Action is one element of an interactive payload's actions array.
type Action struct {
	Type           string          `json:"type"`
	ActionID       string          `json:"action_id"`
	Name           string          `json:"name"`
	Value          string          `json:"value"`
	Text           json.RawMessage `json:"text"`
	SelectedOption *struct {
		Value string `json:"value"`
	} `json:"selected_option"`
}

// Parse decodes a webhook body. Slack sends interactive payloads
// form-encoded as payload=<json>.
func Parse(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil {
		return &env, nil
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	payload := form.Get("payload")
	if payload == "" {
		return nil, ErrUnparseable
	}
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrUnparseable, err)
	}
	return &env, nil
}

// IsChallenge reports whether this is a URL verification request.
func (e *Envelope) IsChallenge() bool {
	return e.Challenge != ""
}

// Identity returns the channel and user the body came from.
func (e *Envelope) Identity() (channel, user string) {
	if e.Callback != nil && e.Callback.User != "" && e.Callback.Channel != "" {
		return e.Callback.Channel, e.Callback.User
	}
	if e.User != nil && e.Channel != nil {
		return e.Channel.ID, e.User.ID
	}
	return "", ""
}

// IsBotEcho reports whether the event was authored by a bot, including
// this connector's own messages.
func (e *Envelope) IsBotEcho() bool {
	if e.Callback == nil {
		return false
	}
	return hasValue(e.Callback.BotProfile) || e.Callback.Subtype == "bot_message"
}

// ClientMsgID returns the client-assigned message id, if any.
func (e *Envelope) ClientMsgID() string {
	if e.Callback == nil {
		return ""
	}
	return e.Callback.ClientMsgID
}

// ActionID returns the action id of the first clicked element.
func (e *Envelope) ActionID() string {
	if len(e.Actions) == 0 {
		return ""
	}
	return e.Actions[0].ActionID
}

// MessageTS returns the timestamp of the message an interactive click came from.
func (e *Envelope) MessageTS() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.TS
}

// Event returns the message object to classify, or nil when the body
// carries nothing to answer.
func (e *Envelope) Event() *Event {
	switch {
	case e.Callback == nil && len(e.Actions) == 0:
		return nil
	case e.Callback != nil && !e.Callback.HasText():
		return nil
	}

	switch e.Type {
	case "interactive_message":
		if len(e.Actions) == 0 {
			return nil
		}
		return e.Actions[0].event()
	case "block_actions":
		if len(e.Actions) == 0 {
			return nil
		}
		return e.Actions[0].quickReply()
	}
	return e.Callback
}

func (a Action) event() *Event {
	return &Event{
		Type:     a.Type,
		ActionID: a.ActionID,
		Value:    a.Value,
		Text:     a.Text,
	}
}

// quickReply rewrites Block Kit button and select clicks into quick
// replies carrying the clicked value as payload.
func (a Action) quickReply() *Event {
	ev := a.event()

	var payload string
	switch a.Type {
	case "button":
		payload = a.Value
	case "static_select":
		if a.SelectedOption != nil {
			payload = a.SelectedOption.Value
		}
	default:
		return ev
	}

	ev.Text = nil
	ev.Type = "quick_reply"
	ev.Message = &Embedded{QuickReply: &QuickReply{Payload: payload}}
	return ev
}
