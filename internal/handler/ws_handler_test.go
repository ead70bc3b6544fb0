package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildiz-fatih/lazybook/internal/domain"
)

// dialChat opens a chat connection against the test server.
func dialChat(t *testing.T, srv *testServer, token, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chatting?token=" + token
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

// readJSON reads one text frame with a deadline.
func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var decoded map[string]interface{}
	require.NoError(t, conn.ReadJSON(&decoded))
	return decoded
}

// expectClose asserts the next read fails with the given close code.
func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "expected a close frame, got %v", err)
	assert.Equal(t, code, closeErr.Code)
}

func TestChat_RejectsBadOrigin(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "alice")

	conn, _, err := dialChat(t, srv, token, "http://evil.example")
	require.NoError(t, err, "the upgrade itself succeeds")
	expectClose(t, conn, websocket.ClosePolicyViolation)
}

func TestChat_RejectsBadToken(t *testing.T) {
	srv := newTestServer(t)
	srv.signup(t, "alice")

	conn, _, err := dialChat(t, srv, "bogus-token", testOrigin)
	require.NoError(t, err)
	expectClose(t, conn, websocket.ClosePolicyViolation)
}

func TestChat_DeliversToEveryRecipientConnection(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	bob := srv.signup(t, "bob")

	sender, _, err := dialChat(t, srv, alice, testOrigin)
	require.NoError(t, err)
	device1, _, err := dialChat(t, srv, bob, testOrigin)
	require.NoError(t, err)
	device2, _, err := dialChat(t, srv, bob, testOrigin)
	require.NoError(t, err)

	// Registration happens before the read loop; give the server a
	// moment to finish both handshakes.
	require.Eventually(t, func() bool {
		return len(srv.registry.ConnectionsFor(2)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sender.WriteJSON(map[string]interface{}{
		"recipient_id": 2,
		"contents":     "hi bob",
	}))

	for _, device := range []*websocket.Conn{device1, device2} {
		frame := readJSON(t, device)
		assert.EqualValues(t, 1, frame["sender_id"])
		assert.Equal(t, "hi bob", frame["contents"])
		assert.Contains(t, frame, "created_at")
	}

	// The message is retrievable over the history endpoint.
	status, env := srv.do(t, http.MethodGet, "/messages?peer_id=1", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var history []domain.MessageResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "hi bob", history[0].Contents)
	assert.EqualValues(t, 1, history[0].SenderID)
}

func TestChat_ErrorFramesKeepSessionAlive(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "alice")
	bob := srv.signup(t, "bob")

	sender, _, err := dialChat(t, srv, alice, testOrigin)
	require.NoError(t, err)
	recipient, _, err := dialChat(t, srv, bob, testOrigin)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(srv.registry.ConnectionsFor(1)) == 1 &&
			len(srv.registry.ConnectionsFor(2)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Malformed JSON.
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("{oops")))
	frame := readJSON(t, sender)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, domain.ErrCodeBadJSON, frame["code"])

	// Structurally wrong payload.
	require.NoError(t, sender.WriteJSON(map[string]interface{}{
		"recipient_id": "two",
		"contents":     "hi",
	}))
	frame = readJSON(t, sender)
	assert.Equal(t, domain.ErrCodeValidation, frame["code"])

	// Unknown recipient.
	require.NoError(t, sender.WriteJSON(map[string]interface{}{
		"recipient_id": 99,
		"contents":     "hi",
	}))
	frame = readJSON(t, sender)
	assert.Equal(t, domain.ErrCodeRecipientNotFound, frame["code"])

	// The session survived all three failures.
	require.NoError(t, sender.WriteJSON(map[string]interface{}{
		"recipient_id": 2,
		"contents":     "still here",
	}))
	frame = readJSON(t, recipient)
	assert.Equal(t, "still here", frame["contents"])
}

func TestChat_DisconnectUnregisters(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signup(t, "alice")

	conn, _, err := dialChat(t, srv, token, testOrigin)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(srv.registry.ConnectionsFor(1)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return len(srv.registry.ConnectionsFor(1)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
