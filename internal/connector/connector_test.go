// ABOUTME: End-to-end tests for event handling with in-memory collaborators
// ABOUTME: Covers verification, dedup, answers, rating clicks, escalation and live chat forwarding

package connector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/slack-connector/internal/answer"
	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/inbound"
	"github.com/2389/slack-connector/internal/lang"
	"github.com/2389/slack-connector/internal/livechat"
	"github.com/2389/slack-connector/internal/render"
	"github.com/2389/slack-connector/internal/session"
	"github.com/2389/slack-connector/internal/store"
)

type fakeBot struct {
	replies  map[string]string
	fallback string
	sent     []inbound.Request
	events   []string
	vars     map[string]string
}

func (f *fakeBot) SendMessage(_ context.Context, state *session.State, req *inbound.Request) ([]answer.Item, error) {
	f.sent = append(f.sent, *req)
	state.BotSessionToken = "sess"

	reply := f.fallback
	if req.Message != nil {
		if r, ok := f.replies[*req.Message]; ok {
			reply = r
		}
	}
	if req.DirectCall != "" {
		reply = f.replies["directCall:"+req.DirectCall]
	}
	if reply == "" {
		return nil, errors.New("no reply scripted")
	}
	return answer.ParseResponse([]byte(reply))
}

func (f *fakeBot) TrackEvent(_ context.Context, _ *session.State, eventType string, _ map[string]any) error {
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeBot) SetVariable(_ context.Context, _ *session.State, name, value string) error {
	if f.vars == nil {
		f.vars = map[string]string{}
	}
	f.vars[name] = value
	return nil
}

type posted struct {
	channel  string
	text     string
	updateTS string
	msg      *render.Message
}

type fakePoster struct {
	posts []posted
}

func (f *fakePoster) Send(_ context.Context, channel string, msg *render.Message, updateTS string) error {
	text := ""
	if len(msg.Blocks) > 0 {
		if s, ok := msg.Blocks[0].(*slack.SectionBlock); ok {
			text = s.Text.Text
		}
	}
	f.posts = append(f.posts, posted{channel: channel, text: text, updateTS: updateTS, msg: msg})
	return nil
}

func (f *fakePoster) texts() []string {
	out := make([]string, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, p.text)
	}
	return out
}

type fakeChat struct {
	livechat.Unavailable
	sendErr error
	sent    []livechat.Message
}

func (f *fakeChat) SendMessage(_ context.Context, _ string, msg livechat.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

type harness struct {
	svc    *Service
	store  *store.MockStore
	bot    *fakeBot
	poster *fakePoster
	chat   *fakeChat
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tr, err := lang.New("en", nil)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &harness{
		store:  store.NewMockStore(),
		bot:    &fakeBot{replies: map[string]string{}},
		poster: &fakePoster{},
		chat:   &fakeChat{},
	}
	h.svc = New(Config{
		Chat: config.ChatConfig{Enabled: true, RoomID: 1, TriesBeforeEscalation: 3},
		Ratings: config.ContentRatingsConfig{Enabled: true, Ratings: []config.RatingOption{
			{ID: 1, Label: "yes", Style: "primary"},
			{ID: 2, Label: "no", IsNegative: true, Comment: true, Style: "danger"},
		}},
	}, Deps{
		Store:      h.store,
		Bot:        h.bot,
		Poster:     h.poster,
		Chat:       h.chat,
		Normalizer: inbound.NewNormalizer(nil, logger),
		Renderer:   render.New(tr, config.DigesterConfig{}),
	}, logger)
	return h
}

func (h *harness) state(t *testing.T) *session.State {
	t.Helper()
	st, err := session.Load(context.Background(), h.store, "slack-C1-U1")
	require.NoError(t, err)
	return st
}

func (h *harness) handle(t *testing.T, body string) Outcome {
	t.Helper()
	out, err := h.svc.Handle(context.Background(), []byte(body))
	require.NoError(t, err)
	return out
}

func messageEvent(text, id string) string {
	data, _ := json.Marshal(map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type": "message", "text": text, "user": "U1", "channel": "C1", "client_msg_id": id,
		},
	})
	return string(data)
}

func clickEvent(actionID, value, ts string) string {
	data, _ := json.Marshal(map[string]any{
		"type":       "block_actions",
		"trigger_id": "trig",
		"user":       map[string]string{"id": "U1"},
		"channel":    map[string]string{"id": "C1"},
		"message":    map[string]string{"ts": ts},
		"actions":    []map[string]string{{"type": "button", "action_id": actionID, "value": value}},
	})
	return string(data)
}

func TestHandle_Challenge(t *testing.T) {
	h := newHarness(t)

	out := h.handle(t, `{"token":"x","challenge":"abc123","type":"url_verification"}`)
	assert.Equal(t, Outcome{Kind: Challenge, Challenge: "abc123"}, out)
	assert.Empty(t, h.bot.sent)
}

func TestHandle_Ignored(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unparseable", "not a payload"},
		{"no identity", `{"event":{"type":"message","text":"hi"}}`},
		{"bot echo", `{"event":{"type":"message","text":"hi","user":"U1","channel":"C1","bot_profile":{"id":"B1"}}}`},
		{"empty text", messageEvent("", "m1")},
		{"unknown event", `{"event":{"type":"reaction_added","user":"U1","channel":"C1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			assert.Equal(t, Ignored, h.handle(t, tt.body).Kind)
			assert.Empty(t, h.bot.sent)
			assert.Empty(t, h.poster.posts)
		})
	}
}

func TestHandle_AnswerFlow(t *testing.T) {
	h := newHarness(t)
	h.bot.replies["hello"] = `{"answers":[{"type":"answer","message":"<p>Hi <b>there</b></p>"}]}`

	out := h.handle(t, messageEvent("hello", "m1"))
	assert.Equal(t, Handled, out.Kind)

	require.Len(t, h.bot.sent, 1)
	assert.Equal(t, "hello", *h.bot.sent[0].Message)
	assert.Equal(t, []string{"Hi *there*\n"}, h.poster.texts())
	assert.Equal(t, "C1", h.poster.posts[0].channel)

	st := h.state(t)
	assert.Equal(t, []string{"m1"}, st.MessageIDs)
	assert.Equal(t, "sess", st.BotSessionToken)
}

func TestHandle_DuplicateDelivery(t *testing.T) {
	h := newHarness(t)
	h.bot.fallback = `{"answers":[{"type":"answer","message":"ok"}]}`

	assert.Equal(t, Handled, h.handle(t, messageEvent("hello", "m1")).Kind)
	assert.Equal(t, Ignored, h.handle(t, messageEvent("hello", "m1")).Kind)
	assert.Len(t, h.bot.sent, 1)
}

func TestHandle_RatingPromptAndClick(t *testing.T) {
	h := newHarness(t)
	h.bot.replies["returns"] = `{"answers":[{"type":"answer","message":"Within 30 days","parameters":{"contents":{"trackingCode":{"rateCode":"rc-5"}}}}]}`

	h.handle(t, messageEvent("returns", "m1"))
	require.Len(t, h.poster.posts, 2)
	assert.Equal(t, "Was this answer helpful?", h.poster.posts[1].text)

	btn := h.poster.posts[1].msg.Blocks[1].(*slack.ActionBlock).Elements.ElementSet[1].(*slack.ButtonBlockElement)
	out := h.handle(t, clickEvent(btn.ActionID, btn.Value, "171.42"))
	assert.Equal(t, Handled, out.Kind)

	require.Len(t, h.poster.posts, 3)
	assert.Equal(t, "Please tell us why", h.poster.posts[2].text)
	assert.Equal(t, "171.42", h.poster.posts[2].updateTS)
	assert.Equal(t, []string{"rate"}, h.bot.events)

	st := h.state(t)
	assert.Equal(t, 1, st.NegativeRatingCount)
	require.NotNil(t, st.RatingCommentPending)

	h.handle(t, messageEvent("it was wrong", "m2"))
	assert.Equal(t, "Thanks !", h.poster.posts[3].text)
	assert.Empty(t, h.poster.posts[3].updateTS)
	assert.Len(t, h.bot.sent, 1, "the comment is not sent as a question")
	assert.Nil(t, h.state(t).RatingCommentPending)
}

func TestHandle_PolarQuestionCarriesUserText(t *testing.T) {
	h := newHarness(t)
	h.bot.replies["refund"] = `{"answers":[{"type":"polarQuestion","message":"Is it about an order?","options":[{"label":"yes","value":"Y"},{"label":"no","value":"N"}]}]}`
	h.bot.fallback = `{"answers":[{"type":"answer","message":"Great"}]}`

	h.handle(t, messageEvent("refund", "m1"))
	btn := h.poster.posts[0].msg.Blocks[1].(*slack.ActionBlock).Elements.ElementSet[0].(*slack.ButtonBlockElement)
	assert.JSONEq(t, `{"message":"refund","option":"Y"}`, btn.Value)

	h.handle(t, clickEvent("", btn.Value, "1.1"))
	require.Len(t, h.bot.sent, 2)
	assert.Nil(t, h.bot.sent[1].Message, "the question already carries the text")
	assert.Equal(t, "Y", h.bot.sent[1].Option.String())
	assert.Empty(t, h.poster.posts[1].updateTS, "only rating clicks update in place")
}

func TestHandle_ExtendedContentClickShowsSubAnswer(t *testing.T) {
	h := newHarness(t)
	h.bot.replies["topics"] = `{"answers":[{"type":"extendedContentsAnswer","message":"Pick one","subAnswers":[
		{"type":"answer","message":"<p>Sub body text</p>","parameters":{"contents":{"title":"Shipping"}}}]}]}`

	h.handle(t, messageEvent("topics", "m1"))
	require.Len(t, h.poster.posts, 1)
	btn := h.poster.posts[0].msg.Blocks[1].(*slack.ActionBlock).Elements.ElementSet[0].(*slack.ButtonBlockElement)

	out := h.handle(t, clickEvent("", btn.Value, "3.3"))
	assert.Equal(t, Handled, out.Kind)

	assert.Len(t, h.bot.sent, 1, "the sub-answer is shown without asking the answer API")
	require.Len(t, h.poster.posts, 2)
	assert.Equal(t, "Sub body text\n", h.poster.posts[1].text)
}

func TestHandle_EscalationOfferAcceptedWithoutAgents(t *testing.T) {
	h := newHarness(t)
	h.bot.replies["human"] = `{"answers":[{"type":"answer","message":"Let me check","flags":["escalate"]}]}`
	h.bot.replies["directCall:escalationStart"] = `{"answers":[{"type":"answer","message":"Nobody is around right now"}]}`

	h.handle(t, messageEvent("human", "m1"))
	assert.Equal(t, []string{"Let me check", "Do you want to start a chat with a human agent?"}, h.poster.texts())
	st := h.state(t)
	assert.True(t, st.AskingForEscalation)
	assert.Equal(t, session.EscalationFlag, st.EscalationType)

	h.handle(t, clickEvent("", `{"escalateOption":true}`, "2.2"))

	assert.Equal(t, map[string]string{"agents_available": "false"}, h.bot.vars)
	require.Len(t, h.bot.sent, 2)
	assert.Equal(t, "escalationStart", h.bot.sent[1].DirectCall)
	assert.Equal(t, "Nobody is around right now", h.poster.posts[2].text)

	st = h.state(t)
	assert.False(t, st.AskingForEscalation)
	assert.Equal(t, session.EscalationNone, st.EscalationType)
}

func TestHandle_EscalationOfferDeclined(t *testing.T) {
	h := newHarness(t)
	h.bot.replies["human"] = `{"answers":[{"type":"answer","message":"Let me check","flags":["escalate"]}]}`
	h.bot.replies["no"] = `{"answers":[{"type":"answer","message":"What else can I do for you?"}]}`

	h.handle(t, messageEvent("human", "m1"))
	h.handle(t, clickEvent("", `{"escalateOption":false}`, "2.2"))

	require.Len(t, h.bot.sent, 2)
	assert.Equal(t, "no", *h.bot.sent[1].Message)
	assert.Contains(t, h.bot.events, "CONTACT_REJECTED")
	assert.False(t, h.state(t).AskingForEscalation)
}

func TestHandle_UnrecognizedResponse(t *testing.T) {
	h := newHarness(t)
	h.bot.fallback = `{"answers":[{"type":"carousel","message":{"cards":[]}}]}`

	_, err := h.svc.Handle(context.Background(), []byte(messageEvent("hello", "m1")))
	require.ErrorIs(t, err, answer.ErrUnrecognizedResponse)

	assert.Equal(t, []string{"m1"}, h.state(t).MessageIDs, "state is saved even when the event fails")
}

func TestHandle_LiveChatForwarding(t *testing.T) {
	h := newHarness(t)
	st := session.New("slack-C1-U1")
	st.ChatOnGoing = "chat-7"
	require.NoError(t, st.Save(context.Background(), h.store))

	h.handle(t, messageEvent("is anyone there?", "m1"))
	require.Len(t, h.chat.sent, 1)
	assert.Equal(t, "is anyone there?", h.chat.sent[0].Text)
	assert.Empty(t, h.bot.sent)
}

func TestHandle_LiveChatGoneClosesChat(t *testing.T) {
	h := newHarness(t)
	h.chat.sendErr = errors.New("chat ended")
	st := session.New("slack-C1-U1")
	st.ChatOnGoing = "chat-7"
	require.NoError(t, st.Save(context.Background(), h.store))

	h.handle(t, messageEvent("hello?", "m1"))
	assert.Equal(t, []string{"_Chat closed_"}, h.poster.texts())
	assert.False(t, h.state(t).ChatActive())
}

func TestHandleChatEvent(t *testing.T) {
	tests := []struct {
		name       string
		event      livechat.Event
		wantTexts  []string
		wantActive bool
	}{
		{
			name:       "agent message relayed",
			event:      livechat.Event{Kind: livechat.EventMessage, ChatID: "chat-7", Text: "Hi, I am Ana"},
			wantTexts:  []string{"Hi, I am Ana"},
			wantActive: true,
		},
		{
			name:      "chat closed",
			event:     livechat.Event{Kind: livechat.EventClosed, ChatID: "chat-7"},
			wantTexts: []string{"_Chat closed_"},
		},
		{
			name:       "stale chat ignored",
			event:      livechat.Event{Kind: livechat.EventClosed, ChatID: "chat-1"},
			wantTexts:  []string{},
			wantActive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			st := session.New("slack-C1-U1")
			st.ChatOnGoing = "chat-7"
			require.NoError(t, st.Save(context.Background(), h.store))

			require.NoError(t, h.svc.HandleChatEvent(context.Background(), "slack-C1-U1", tt.event))

			assert.Equal(t, tt.wantTexts, h.poster.texts())
			assert.Equal(t, tt.wantActive, h.state(t).ChatActive())
			for _, p := range h.poster.posts {
				assert.Equal(t, "C1", p.channel)
			}
		})
	}
}

func TestHandle_ChatClosedByAgentReturnsToBot(t *testing.T) {
	h := newHarness(t)
	h.bot.fallback = `{"answers":[{"type":"answer","message":"Back with the bot"}]}`
	st := session.New("slack-C1-U1")
	st.ChatOnGoing = "chat-7"
	require.NoError(t, st.Save(context.Background(), h.store))

	require.NoError(t, h.svc.HandleChatEvent(context.Background(), "slack-C1-U1",
		livechat.Event{Kind: livechat.EventClosed, ChatID: "chat-7"}))
	h.handle(t, messageEvent("hello", "m1"))

	assert.Empty(t, h.chat.sent)
	require.Len(t, h.bot.sent, 1)
	assert.Equal(t, "hello", *h.bot.sent[0].Message)
}
