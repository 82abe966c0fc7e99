// ABOUTME: Escalation state machine driven by answer batches and rating clicks
// ABOUTME: Offers, resolves and performs hand-offs to the live chat backend

package escalation

import (
	"context"
	"log/slog"

	"github.com/2389/slack-connector/internal/answer"
	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/inbound"
	"github.com/2389/slack-connector/internal/livechat"
	"github.com/2389/slack-connector/internal/render"
	"github.com/2389/slack-connector/internal/session"
)

// Tracking events reported to the answer API.
const (
	EventContactAttended   = "CONTACT_ATTENDED"
	EventContactUnattended = "CONTACT_UNATTENDED"
	EventContactRejected   = "CONTACT_REJECTED"
)

// VarAgentsAvailable is the conversation variable set when no agent could
// take an escalation the answer API asked for.
const VarAgentsAvailable = "agents_available"

// Decision is the outcome of an escalation check.
type Decision int

const (
	// DecisionNone means no escalation trigger matched.
	DecisionNone Decision = iota
	// DecisionOffered means the user was asked whether to talk to an agent.
	DecisionOffered
	// DecisionEscalated means a hand-off was attempted.
	DecisionEscalated
)

// Bot is the part of the answer API the machine reports to.
type Bot interface {
	TrackEvent(ctx context.Context, state *session.State, eventType string, data map[string]any) error
	SetVariable(ctx context.Context, state *session.State, name, value string) error
}

// Outbox posts messages to the conversation.
type Outbox interface {
	Send(ctx context.Context, state *session.State, msg *render.Message) error
}

// Directory resolves the Slack profile of a user.
type Directory interface {
	UserProfile(ctx context.Context, userID string) (name, email string, err error)
}

// Registrar links the Slack identity to the user's ticketing record.
type Registrar interface {
	RegisterUser(ctx context.Context, contact, externalID string) error
}

// Replayer sends a synthetic request through the answer flow.
type Replayer func(ctx context.Context, req *inbound.Request, state *session.State) error

// Deps are the collaborators of a Machine. Registrar may be nil.
type Deps struct {
	Chat      livechat.Client
	Bot       Bot
	Outbox    Outbox
	Directory Directory
	Registrar Registrar
	Renderer  *render.Renderer
	Replay    Replayer
}

// Machine runs the escalation flow for one conversation at a time.
type Machine struct {
	cfg    config.ChatConfig
	deps   Deps
	logger *slog.Logger
}

// New creates a Machine.
func New(cfg config.ChatConfig, deps Deps, logger *slog.Logger) *Machine {
	return &Machine{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "escalation"),
	}
}

type replayKey struct{}

// inReplay reports whether ctx belongs to a request the machine replayed
// itself. Escalation triggers in replayed answers are ignored so a failed
// hand-off cannot loop.
func inReplay(ctx context.Context) bool {
	v, _ := ctx.Value(replayKey{}).(bool)
	return v
}

// eligible reports whether a new escalation may start.
func (m *Machine) eligible(ctx context.Context, state *session.State) bool {
	return m.cfg.Enabled && !state.ChatActive() && !state.AskingForEscalation && !inReplay(ctx)
}

// Evaluate checks an answer batch for escalation triggers. Every
// no-results answer in the batch is counted, whether or not a trigger fires;
// the first trigger found wins.
func (m *Machine) Evaluate(ctx context.Context, items []answer.Item, state *session.State) (Decision, error) {
	eligible := m.eligible(ctx, state)

	typ := session.EscalationNone
	for i := range items {
		it := &items[i]
		if it.HasFlag(answer.FlagNoResults) {
			state.NoResultsCount++
		}
		if eligible && typ == session.EscalationNone {
			typ = m.trigger(it, state)
		}
	}
	if typ == session.EscalationNone {
		return DecisionNone, nil
	}

	state.EscalationType = typ
	m.logger.Info("escalation triggered", "session", state.ID(), "type", string(typ))
	if typ == session.EscalationDirect {
		return m.Escalate(ctx, state)
	}
	return m.offer(ctx, state)
}

func (m *Machine) trigger(it *answer.Item, state *session.State) session.EscalationType {
	switch {
	case it.HasFlag(answer.FlagEscalate):
		return session.EscalationFlag
	case m.cfg.TriesBeforeEscalation > 0 && state.NoResultsCount >= m.cfg.TriesBeforeEscalation:
		return session.EscalationNoResults
	case m.cfg.NegativeRatingsBeforeEscalation > 0 && state.NegativeRatingCount >= m.cfg.NegativeRatingsBeforeEscalation:
		return session.EscalationNegativeRating
	case it.IsEscalationOffer():
		return session.EscalationOffer
	case it.IsEscalationStart():
		return session.EscalationDirect
	}
	return session.EscalationNone
}

// ObserveRating records a rating and offers an agent once the negative
// rating threshold is reached.
func (m *Machine) ObserveRating(ctx context.Context, state *session.State, negative bool) (Decision, error) {
	if !negative {
		return DecisionNone, nil
	}
	state.NegativeRatingCount++

	threshold := m.cfg.NegativeRatingsBeforeEscalation
	if threshold <= 0 || state.NegativeRatingCount < threshold || !m.eligible(ctx, state) {
		return DecisionNone, nil
	}
	state.EscalationType = session.EscalationNegativeRating
	return m.offer(ctx, state)
}

func (m *Machine) offer(ctx context.Context, state *session.State) (Decision, error) {
	state.AskingForEscalation = true
	if err := m.deps.Outbox.Send(ctx, state, m.deps.Renderer.EscalationOffer()); err != nil {
		return DecisionOffered, err
	}
	return DecisionOffered, nil
}

// Resolve applies the user's answer to a pending offer.
func (m *Machine) Resolve(ctx context.Context, accepted bool, state *session.State) (Decision, error) {
	state.ResetCounters()
	state.AskingForEscalation = false

	if accepted {
		return m.Escalate(ctx, state)
	}

	state.EscalationType = session.EscalationNone
	m.track(ctx, state, EventContactRejected)

	no := inbound.Text("no")
	return DecisionNone, m.replay(ctx, &no, state)
}

// Escalate hands the conversation to a live agent. Failures of the chat
// backend end in the no-agents path and are not returned.
func (m *Machine) Escalate(ctx context.Context, state *session.State) (Decision, error) {
	typ := state.EscalationType
	state.EscalationType = session.EscalationNone

	if chatID, ok := m.openChat(ctx, state); ok {
		state.ChatOnGoing = chatID
		m.logger.Info("chat opened", "session", state.ID(), "chat", chatID)
		if err := m.deps.Outbox.Send(ctx, state, m.deps.Renderer.Notice("creating_chat")); err != nil {
			return DecisionEscalated, err
		}
		m.track(ctx, state, EventContactAttended)
		return DecisionEscalated, nil
	}

	if typ.Explicit() {
		if err := m.deps.Bot.SetVariable(ctx, state, VarAgentsAvailable, "false"); err != nil {
			m.logger.Warn("setting agents variable failed", "session", state.ID(), "error", err)
		}
		req := inbound.Request{DirectCall: answer.CallbackEscalationStart}
		return DecisionEscalated, m.replay(ctx, &req, state)
	}

	m.track(ctx, state, EventContactUnattended)
	return DecisionEscalated, m.deps.Outbox.Send(ctx, state, m.deps.Renderer.Notice("no_agents"))
}

// openChat asks the backend for an agent and opens the chat.
func (m *Machine) openChat(ctx context.Context, state *session.State) (string, bool) {
	available, err := m.deps.Chat.AgentsAvailable(ctx, m.cfg.RoomID)
	if err != nil {
		m.logger.Warn("agent availability check failed", "session", state.ID(), "error", err)
		return "", false
	}
	if !available {
		return "", false
	}

	user := m.user(ctx, state)
	chatID, err := m.deps.Chat.OpenChat(ctx, livechat.ChatRequest{RoomID: m.cfg.RoomID, User: user})
	if err != nil {
		m.logger.Warn("opening chat failed", "session", state.ID(), "error", err)
		return "", false
	}

	if m.deps.Registrar != nil && user.Contact != "" {
		if err := m.deps.Registrar.RegisterUser(ctx, user.Contact, user.ExternalID); err != nil {
			m.logger.Warn("ticketing registration failed", "session", state.ID(), "error", err)
		}
	}
	return chatID, true
}

// user builds the chat user from the Slack profile, falling back to the
// configured guest identity.
func (m *Machine) user(ctx context.Context, state *session.State) livechat.User {
	user := livechat.User{
		Name:       m.cfg.GuestName,
		Contact:    m.cfg.GuestContact,
		ExternalID: state.ID(),
		ExtraInfo:  map[string]any{},
	}

	_, userID, ok := session.ParseExternalID(state.ID())
	if !ok || m.deps.Directory == nil {
		return user
	}
	name, email, err := m.deps.Directory.UserProfile(ctx, userID)
	if err != nil {
		m.logger.Warn("profile lookup failed", "session", state.ID(), "error", err)
		return user
	}
	if name != "" {
		user.Name = name
	}
	if email != "" {
		user.Contact = email
	}
	return user
}

func (m *Machine) track(ctx context.Context, state *session.State, event string) {
	if err := m.deps.Bot.TrackEvent(ctx, state, event, map[string]any{"value": "true"}); err != nil {
		m.logger.Warn("tracking failed", "session", state.ID(), "event", event, "error", err)
	}
}

func (m *Machine) replay(ctx context.Context, req *inbound.Request, state *session.State) error {
	return m.deps.Replay(context.WithValue(ctx, replayKey{}, true), req, state)
}
