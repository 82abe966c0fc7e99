// ABOUTME: Tests for the ticketing client against an httptest server
// ABOUTME: Covers identity registration and closed-ticket reply resolution

package ticketing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/slack-connector/internal/config"
	"github.com/2389/slack-connector/internal/lang"
)

type fakeMessenger struct {
	server  *httptest.Server
	users   map[string]string
	updated map[string]any
}

func newFakeMessenger(t *testing.T) *fakeMessenger {
	t.Helper()
	f := &fakeMessenger{users: map[string]string{
		"ada@example.com":    `{"data":[{"id":41,"extra":[{"id":1,"content":"x"},{"id":2,"content":"C1-U1"}]}]}`,
		"bob@example.com":    `{"data":[{"id":42,"extra":[]}]}`,
		"nobody@example.com": `{"data":[]}`,
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"accessToken":"tok","expiration":`+jsonInt(time.Now().Add(time.Hour).Unix())+`,"apis":{"ticketing":"`+f.server.URL+`/tickets"}}`)
	})
	mux.HandleFunc("GET /tickets/v1/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := f.users[r.URL.Query().Get("address")]
		if !ok {
			body = `{"data":[]}`
		}
		io.WriteString(w, body)
	})
	mux.HandleFunc("PUT /tickets/v1/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.updated = map[string]any{"id": r.PathValue("id"), "body": body}
		io.WriteString(w, `{}`)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func jsonInt(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func newTestClient(t *testing.T, f *fakeMessenger) *Client {
	t.Helper()
	tr, err := lang.New("en", nil)
	require.NoError(t, err)
	return New(config.MessengerConfig{AuthURL: f.server.URL + "/auth", Key: "k", Secret: "s"},
		5*time.Second, tr, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterUser(t *testing.T) {
	f := newFakeMessenger(t)
	c := newTestClient(t, f)

	require.NoError(t, c.RegisterUser(context.Background(), "bob@example.com", "slack-C9-U9"))
	require.NotNil(t, f.updated)
	assert.Equal(t, "42", f.updated["id"])

	data, err := json.Marshal(f.updated["body"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"extra":[{"id":2,"content":"C9-U9"}]}`, string(data))
}

func TestRegisterUser_Errors(t *testing.T) {
	f := newFakeMessenger(t)
	c := newTestClient(t, f)

	err := c.RegisterUser(context.Background(), "nobody@example.com", "slack-C1-U1")
	assert.ErrorIs(t, err, ErrUnknownUser)

	err = c.RegisterUser(context.Background(), "bob@example.com", "web-123")
	assert.Error(t, err)
	assert.Nil(t, f.updated)
}

func closedTicket(creator string) []byte {
	return []byte(`{"events":[{"resource":"TK-77","resource_data":{"creator":{"identifier":"` + creator + `"}},"action_data":{"text":"Your **refund** is on its way.\n\nSee [status](https://status.example)."}}]}`)
}

func TestClosedTicket(t *testing.T) {
	f := newFakeMessenger(t)
	c := newTestClient(t, f)

	reply, err := c.ClosedTicket(context.Background(), closedTicket("ada@example.com"))
	require.NoError(t, err)

	assert.Equal(t, "C1", reply.Channel)
	assert.Equal(t, "U1", reply.User)
	want := "_Hi, I'm the agent that you spoke to a while ago. My response to your question:_\n" +
		"Your *refund* is on its way.\nSee <https://status.example|status>.\n\n" +
		"_Here is the ticket number for your reference: *TK-77*_\n" +
		"_You can now continue chatting with the chatbot. If you want to talk to someone, type 'agent'. Thank you!_"
	assert.Equal(t, want, reply.Text)
}

func TestClosedTicket_Errors(t *testing.T) {
	f := newFakeMessenger(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	_, err := c.ClosedTicket(ctx, []byte(`{"events":[]}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = c.ClosedTicket(ctx, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = c.ClosedTicket(ctx, closedTicket("bob@example.com"))
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestMarkdownToSlack(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"*em* and **strong**", "_em_ and *strong*"},
		{"- one\n- two", "● one\n● two"},
		{"`code`", "`code`"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, markdownToSlack(tt.in), "input %q", tt.in)
	}
}
