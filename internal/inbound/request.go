// ABOUTME: Canonical request sent to the answer API
// ABOUTME: Option values keep their JSON form so numeric ids survive the round trip

package inbound

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Request is the normalized unit sent to the answer API. Click payloads
// that the answer API understands natively pass through in the trailing
// fields.
type Request struct {
	Message        *string   `json:"message,omitempty"`
	Option         Value     `json:"option,omitzero"`
	Media          *Media    `json:"-"`
	MultipleOutput []Request `json:"multiple_output,omitempty"`

	RatingData            *RatingData     `json:"ratingData,omitempty"`
	AskRatingComment      *bool           `json:"askRatingComment,omitempty"`
	IsNegativeRating      *bool           `json:"isNegativeRating,omitempty"`
	EscalateOption        *bool           `json:"escalateOption,omitempty"`
	ExtendedContentAnswer json.RawMessage `json:"extendedContentAnswer,omitempty"`
	UserMessage           *string         `json:"userMessage,omitempty"`
	DirectCall            string          `json:"directCall,omitempty"`
}

// RatingData is the tracking event embedded in rating buttons.
type RatingData struct {
	Type string `json:"type"`
	Data struct {
		Code    string  `json:"code"`
		Value   int     `json:"value"`
		Comment *string `json:"comment"`
	} `json:"data"`
}

// Media is a file fetched from Slack to forward to a live agent.
type Media struct {
	Name     string
	FileType string
	Data     []byte
}

// Text returns a request carrying only a message.
func Text(message string) Request {
	return Request{Message: &message}
}

// IsEmpty reports whether the request carries nothing to send.
func (r *Request) IsEmpty() bool {
	return r.Message == nil && r.Option.IsZero() && r.Media == nil && len(r.MultipleOutput) == 0 &&
		r.RatingData == nil && r.EscalateOption == nil && len(r.ExtendedContentAnswer) == 0 &&
		r.UserMessage == nil && r.DirectCall == ""
}

// Turns flattens the request into the individual turns to send in order.
func (r *Request) Turns() []Request {
	if len(r.MultipleOutput) == 0 {
		return []Request{*r}
	}
	return r.MultipleOutput
}

// Value is a scalar from a click payload. Strings and numbers keep their
// original JSON encoding.
type Value struct {
	raw json.RawMessage
}

// StringValue wraps s.
func StringValue(s string) Value {
	raw, _ := json.Marshal(s)
	return Value{raw: raw}
}

// IsZero reports whether no value is set.
func (v Value) IsZero() bool {
	return len(v.raw) == 0
}

// String returns the value as text: strings unquoted, anything else in its
// JSON form.
func (v Value) String() string {
	if v.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil {
		return s
	}
	return string(v.raw)
}

// Int returns the value as an integer when it is one.
func (v Value) Int() (int, bool) {
	n, err := strconv.Atoi(v.String())
	return n, err == nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	return v.raw, nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		v.raw = nil
		return nil
	}
	v.raw = append(json.RawMessage(nil), data...)
	return nil
}
