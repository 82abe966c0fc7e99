// ABOUTME: Answer API conversation client
// ABOUTME: Starts conversations, sends turns, tracks events and sets variables

package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/slack-connector/internal/answer"
	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/inbound"
	"github.com/2389/slack-connector/internal/session"
)

// API paths relative to the chatbot base URL.
const (
	pathConversation = "/v1/conversation"
	pathMessage      = "/v1/conversation/message"
	pathVariables    = "/v1/conversation/variables"
	pathTracking     = "/v1/tracking/events"
)

// Client talks to the answer API on behalf of many conversations.
type Client struct {
	tokens *TokenSource
	http   *http.Client
	conv   conversationConfig
	logger *slog.Logger
}

type conversationConfig struct {
	Configuration struct {
		Answers struct {
			SideBubbleAttributes []string `json:"sideBubbleAttributes,omitempty"`
			AnswerAttributes     []string `json:"answerAttributes,omitempty"`
			MaxOptions           int      `json:"maxOptions,omitempty"`
			MaxRelatedContents   int      `json:"maxRelatedContents,omitempty"`
		} `json:"answers"`
	} `json:"configuration"`
	UserType    int    `json:"userType"`
	Environment string `json:"environment"`
	Source      string `json:"source"`
}

// New creates a Client.
func New(api config.APIConfig, conv config.ConversationConfig, logger *slog.Logger) *Client {
	httpClient := &http.Client{Timeout: api.Timeout}

	var cc conversationConfig
	cc.Configuration.Answers.SideBubbleAttributes = conv.Answers.SideBubbleAttributes
	cc.Configuration.Answers.AnswerAttributes = conv.Answers.AnswerAttributes
	cc.Configuration.Answers.MaxOptions = conv.Answers.MaxOptions
	cc.Configuration.Answers.MaxRelatedContents = conv.Answers.MaxRelatedContents
	cc.UserType = conv.UserType
	cc.Environment = conv.Environment
	cc.Source = conv.Source

	return &Client{
		tokens: NewTokenSource(api.AuthURL, api.Key, api.Secret, httpClient),
		http:   httpClient,
		conv:   cc,
		logger: logger.With("component", "chatbot"),
	}
}

// Tokens exposes the token source so other clients of the same account can
// reuse it.
func (c *Client) Tokens() *TokenSource {
	return c.tokens
}

// SendMessage sends one turn and returns the answer items.
func (c *Client) SendMessage(ctx context.Context, state *session.State, req *inbound.Request) ([]answer.Item, error) {
	var body []byte
	if err := c.sessionCall(ctx, state, pathMessage, req, &body); err != nil {
		return nil, err
	}
	return answer.ParseResponse(body)
}

// TrackEvent reports an event about the conversation.
func (c *Client) TrackEvent(ctx context.Context, state *session.State, eventType string, data map[string]any) error {
	payload := map[string]any{"type": eventType, "data": data}
	return c.sessionCall(ctx, state, pathTracking, payload, nil)
}

// SetVariable sets a conversation variable.
func (c *Client) SetVariable(ctx context.Context, state *session.State, name, value string) error {
	payload := map[string]string{"name": name, "value": value}
	return c.sessionCall(ctx, state, pathVariables, payload, nil)
}

// sessionCall posts to a conversation-scoped endpoint. An expired
// conversation is replaced once.
func (c *Client) sessionCall(ctx context.Context, state *session.State, path string, body, out any) error {
	err := c.post(ctx, state, path, body, out)
	var se *StatusError
	if !errors.As(err, &se) || (se.Code != http.StatusUnauthorized && !sessionExpired(se)) {
		return err
	}

	c.logger.Info("answer API session expired, starting a new one", "session", state.ID())
	if se.Code == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	state.BotSessionToken = ""
	return c.post(ctx, state, path, body, out)
}

func sessionExpired(se *StatusError) bool {
	return se.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(se.Body), "session")
}

func (c *Client) post(ctx context.Context, state *session.State, path string, body, out any) error {
	creds, err := c.tokens.Credentials(ctx)
	if err != nil {
		return err
	}
	if state.BotSessionToken == "" {
		token, err := c.startConversation(ctx, creds)
		if err != nil {
			return err
		}
		state.BotSessionToken = token
	}

	headers := c.headers(creds)
	headers["x-inbenta-session"] = "Bearer " + state.BotSessionToken
	if err := DoJSON(ctx, c.http, http.MethodPost, creds.ChatbotURL+path, headers, body, out); err != nil {
		return fmt.Errorf("answer API %s: %w", path, err)
	}
	return nil
}

func (c *Client) startConversation(ctx context.Context, creds *Credentials) (string, error) {
	var resp struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := DoJSON(ctx, c.http, http.MethodPost, creds.ChatbotURL+pathConversation, c.headers(creds), c.conv, &resp); err != nil {
		return "", fmt.Errorf("starting conversation: %w", err)
	}
	if resp.SessionToken == "" {
		return "", errors.New("starting conversation: empty session token")
	}
	return resp.SessionToken, nil
}

func (c *Client) headers(creds *Credentials) map[string]string {
	return map[string]string{
		"x-inbenta-key": c.tokens.Key(),
		"Authorization": "Bearer " + creds.AccessToken,
	}
}
