// ABOUTME: Live-agent chat client contract and escalation payload types
// ABOUTME: Unavailable is the default client when no chat backend is wired

package livechat

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no chat backend can take the conversation.
var ErrUnavailable = errors.New("live chat unavailable")

// User identifies the person an agent will talk to.
type User struct {
	Name       string         `json:"name"`
	Contact    string         `json:"contact"`
	ExternalID string         `json:"externalId"`
	ExtraInfo  map[string]any `json:"extraInfo"`
}

// ChatRequest opens a chat in a room.
type ChatRequest struct {
	RoomID int  `json:"roomId"`
	User   User `json:"user"`
}

// Message is a user turn forwarded to the agent of a running chat.
type Message struct {
	Text string
	File *File
}

// File is a media upload forwarded to an agent.
type File struct {
	Name string
	Type string
	Data []byte
}

// EventKind tells what happened in a running chat.
type EventKind int

const (
	// EventMessage is an agent message for the user.
	EventMessage EventKind = iota
	// EventClosed means the agent or the backend ended the chat.
	EventClosed
)

// Event is pushed by a chat backend for a running chat.
type Event struct {
	Kind   EventKind
	ChatID string
	Text   string
}

// Client talks to a live-agent chat backend.
type Client interface {
	// AgentsAvailable reports whether an agent can take a chat in roomID.
	AgentsAvailable(ctx context.Context, roomID int) (bool, error)
	// OpenChat starts a chat and returns its id.
	OpenChat(ctx context.Context, req ChatRequest) (string, error)
	// SendMessage forwards a user turn to a running chat.
	SendMessage(ctx context.Context, chatID string, msg Message) error
}

// Unavailable never has agents.
type Unavailable struct{}

// AgentsAvailable always reports false.
func (Unavailable) AgentsAvailable(context.Context, int) (bool, error) {
	return false, nil
}

// OpenChat always fails with ErrUnavailable.
func (Unavailable) OpenChat(context.Context, ChatRequest) (string, error) {
	return "", ErrUnavailable
}

// SendMessage always fails with ErrUnavailable.
func (Unavailable) SendMessage(context.Context, string, Message) error {
	return ErrUnavailable
}
