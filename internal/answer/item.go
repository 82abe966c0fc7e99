// ABOUTME: Answer API item model with raw JSON retention
// ABOUTME: Exposes the flags, attributes and parameters the renderer and state machines inspect

package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrUnrecognizedResponse is returned for responses the connector cannot render.
var ErrUnrecognizedResponse = errors.New("unrecognized answer API response")

// Well-known flags, attributes and callbacks.
const (
	FlagEscalate  = "escalate"
	FlagNoResults = "no-results"
	FlagNoRating  = "no-rating"

	AttrSideBubble      = "SIDEBUBBLE_TEXT"
	AttrDynamicRedirect = "DYNAMIC_REDIRECT"

	RedirectEscalationOffer = "escalationOffer"
	RedirectEscalationStart = "escalationStart"
	CallbackEscalationStart = "escalationStart"
)

// Item is one element of an answer API response.
type Item struct {
	Type        string                     `json:"type"`
	Message     string                     `json:"-"`
	Attributes  map[string]json.RawMessage `json:"attributes"`
	Options     []Option                   `json:"options"`
	Flags       []string                   `json:"flags"`
	Actions     []Action                   `json:"actions"`
	Parameters  Parameters                 `json:"parameters"`
	SubAnswers  []Item                     `json:"subAnswers"`
	ActionField json.RawMessage            `json:"actionField"`

	// hasText is false when message was missing or not a string
	hasText bool
	raw     json.RawMessage
}

// Option is a selectable choice of a question.
type Option struct {
	Label      string                     `json:"label"`
	Value      json.RawMessage            `json:"value"`
	Attributes map[string]json.RawMessage `json:"attributes"`
}

// Action is an answer API action attached to an item.
type Action struct {
	Parameters struct {
		Callback string `json:"callback"`
	} `json:"parameters"`
}

// Parameters holds the item's content metadata.
type Parameters struct {
	Contents Contents `json:"contents"`
}

// Contents describes the content behind an answer.
type Contents struct {
	Title        string       `json:"title"`
	URL          *URLContent  `json:"url"`
	Related      *Related     `json:"related"`
	TrackingCode TrackingCode `json:"trackingCode"`
}

// URLContent is a link-type content reference.
type URLContent struct {
	Value string `json:"value"`
}

// Related lists contents related to an answer.
type Related struct {
	RelatedContents []RelatedContent `json:"relatedContents"`
}

// RelatedContent is one related content reference.
type RelatedContent struct {
	ID    json.RawMessage `json:"id"`
	Title string          `json:"title"`
}

// TrackingCode carries the codes used to track events about a content.
type TrackingCode struct {
	RateCode string `json:"rateCode"`
}

// ActionFieldSpec is the input requested by an action-field answer.
type ActionFieldSpec struct {
	ListValues *struct {
		DisplayType string             `json:"displayType"`
		Values      []ActionFieldValue `json:"values"`
	} `json:"listValues"`
}

// ActionFieldValue is one selectable value of an action field.
type ActionFieldValue struct {
	Option string   `json:"option"`
	Label  []string `json:"label"`
}

// UnmarshalJSON decodes an item, keeping its raw form and accepting
// non-string message fields.
func (it *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var aux struct {
		*plain
		Message json.RawMessage `json:"message"`
	}
	aux.plain = (*plain)(it)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	it.Message, it.hasText = "", false
	if len(aux.Message) > 0 {
		var s string
		if err := json.Unmarshal(aux.Message, &s); err == nil && string(aux.Message) != "null" {
			it.Message, it.hasText = s, true
		}
	}
	it.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the item exactly as it was received.
func (it Item) MarshalJSON() ([]byte, error) {
	if it.raw != nil {
		return it.raw, nil
	}
	type plain Item
	return json.Marshal(struct {
		plain
		Message string `json:"message"`
	}{plain(it), it.Message})
}

// HasTextMessage reports whether the item carried a string message.
func (it *Item) HasTextMessage() bool {
	return it.hasText
}

// HasFlag reports whether the item carries flag.
func (it *Item) HasFlag(flag string) bool {
	return slices.Contains(it.Flags, flag)
}

// Attribute returns a string attribute, or "" when missing or not a string.
func (it *Item) Attribute(name string) string {
	return stringAttr(it.Attributes, name)
}

// Attribute returns a string attribute of the option.
func (o *Option) Attribute(name string) string {
	return stringAttr(o.Attributes, name)
}

func stringAttr(attrs map[string]json.RawMessage, name string) string {
	raw, ok := attrs[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ValueString returns the option value as text: strings unquoted, numbers as written.
func (o *Option) ValueString() string {
	return rawString(o.Value)
}

// IDString returns the related content id as text.
func (r *RelatedContent) IDString() string {
	return rawString(r.ID)
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Callback returns the callback of the first action, if any.
func (it *Item) Callback() string {
	if len(it.Actions) == 0 {
		return ""
	}
	return it.Actions[0].Parameters.Callback
}

// RateCode returns the rating tracking code.
func (it *Item) RateCode() string {
	return it.Parameters.Contents.TrackingCode.RateCode
}

// HasActionField reports whether the item carries a non-empty action field.
func (it *Item) HasActionField() bool {
	switch string(it.ActionField) {
	case "", "null", "false", `""`, "[]":
		return false
	}
	return true
}

// DecodeActionField decodes the action field.
func (it *Item) DecodeActionField() (*ActionFieldSpec, error) {
	if !it.HasActionField() {
		return nil, nil
	}
	var spec ActionFieldSpec
	if err := json.Unmarshal(it.ActionField, &spec); err != nil {
		return nil, fmt.Errorf("decoding action field: %w", err)
	}
	return &spec, nil
}

// IsEscalationOffer reports whether the answer API asks to offer an agent.
func (it *Item) IsEscalationOffer() bool {
	return it.Attribute(AttrDynamicRedirect) == RedirectEscalationOffer
}

// IsEscalationStart reports whether the answer API asks to escalate right away.
func (it *Item) IsEscalationStart() bool {
	return it.Callback() == CallbackEscalationStart
}
