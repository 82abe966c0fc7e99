// ABOUTME: Typed per-conversation state with change-tracked persistence
// ABOUTME: Load reads each field from the store, Save writes back only what changed

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2389/slack-connector/internal/store"
)

// EscalationType records which trigger caused the current escalation.
type EscalationType string

const (
	EscalationNone           EscalationType = ""
	EscalationFlag           EscalationType = "flag"
	EscalationNoResults      EscalationType = "no-results"
	EscalationNegativeRating EscalationType = "negative-rating"
	EscalationOffer          EscalationType = "offer"
	EscalationDirect         EscalationType = "direct"
)

// Explicit reports whether the escalation came from the answer API itself
// rather than from a connector-side threshold.
func (t EscalationType) Explicit() bool {
	return t == EscalationFlag || t == EscalationOffer || t == EscalationDirect
}

// MaxMessageIDs bounds the dedup history.
const MaxMessageIDs = 10

// PendingRating is a rating that is waiting for a free-text comment.
type PendingRating struct {
	Code  string `json:"code"`
	Value int    `json:"value"`
}

// State is the conversation state for one external identity.
type State struct {
	ChatOnGoing                 string         `json:"chatOnGoing"`
	EscalationType              EscalationType `json:"escalationType"`
	AskingForEscalation         bool           `json:"askingForEscalation"`
	NoResultsCount              int            `json:"noResultsCount"`
	NegativeRatingCount         int            `json:"negativeRatingCount"`
	MessageIDs                  []string       `json:"messageIds"`
	EscalationStartFromMultiple string         `json:"escalationStartFromMultiple"`
	RatingCommentPending        *PendingRating `json:"ratingCommentPending"`
	BotSessionToken             string         `json:"botSessionToken"`

	id       string
	snapshot map[string][]byte
}

// New returns an empty state for id that has not been persisted.
func New(id string) *State {
	return &State{id: id, snapshot: map[string][]byte{}}
}

// ID returns the conversation identity.
func (s *State) ID() string {
	return s.id
}

// ChatActive reports whether a live-agent chat is running.
func (s *State) ChatActive() bool {
	return s.ChatOnGoing != ""
}

// ResetCounters clears both escalation threshold counters.
func (s *State) ResetCounters() {
	s.NoResultsCount = 0
	s.NegativeRatingCount = 0
}

// fields maps each store key to the field it persists.
func (s *State) fields() map[string]any {
	return map[string]any{
		"chatOnGoing":                 &s.ChatOnGoing,
		"escalationType":              &s.EscalationType,
		"askingForEscalation":         &s.AskingForEscalation,
		"noResultsCount":              &s.NoResultsCount,
		"negativeRatingCount":         &s.NegativeRatingCount,
		"messageIds":                  &s.MessageIDs,
		"escalationStartFromMultiple": &s.EscalationStartFromMultiple,
		"ratingCommentPending":        &s.RatingCommentPending,
		"botSessionToken":             &s.BotSessionToken,
	}
}

// Load reads the state for id. Missing keys keep their zero value.
func Load(ctx context.Context, st store.Store, id string) (*State, error) {
	s := New(id)
	for key, dst := range s.fields() {
		raw, err := st.Get(ctx, id, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", key, err)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		s.snapshot[key] = raw
	}
	return s, nil
}

// Save persists every field that changed since Load. Fields back at their
// zero value are deleted.
func (s *State) Save(ctx context.Context, st store.Store) error {
	for key, src := range s.fields() {
		raw, err := json.Marshal(src)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}

		prev, stored := s.snapshot[key]
		if isZero(raw) {
			if !stored {
				continue
			}
			if err := st.Delete(ctx, s.id, key); err != nil {
				return fmt.Errorf("deleting %s: %w", key, err)
			}
			delete(s.snapshot, key)
			continue
		}

		if stored && bytes.Equal(prev, raw) {
			continue
		}
		if err := st.Set(ctx, s.id, key, raw); err != nil {
			return fmt.Errorf("saving %s: %w", key, err)
		}
		s.snapshot[key] = raw
	}
	return nil
}

func isZero(raw []byte) bool {
	switch string(raw) {
	case `""`, `0`, `false`, `null`, `[]`:
		return true
	}
	return false
}
