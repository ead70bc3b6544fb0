package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildiz-fatih/lazybook/internal/config"
	"github.com/yildiz-fatih/lazybook/internal/domain"
	"github.com/yildiz-fatih/lazybook/internal/hub"
)

// fakeDirectory resolves a fixed set of user ids.
type fakeDirectory struct {
	users map[uint]bool
	err   error
}

func (f *fakeDirectory) UserExists(ctx context.Context, id uint) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.users[id], nil
}

// fakeMessageStore appends into memory and can be told to fail.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages []domain.Message
	nextID   uint
	failNext bool
}

func (f *fakeMessageStore) Append(ctx context.Context, senderID, recipientID uint, contents string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, errors.New("disk full")
	}
	f.nextID++
	msg := domain.Message{
		ID:          f.nextID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Contents:    contents,
		CreatedAt:   time.Now().UTC(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeMessageStore) History(ctx context.Context, userA, userB uint) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.messages {
		if (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// recordingConn satisfies hub.Conn and exposes delivered text frames.
type recordingConn struct {
	mu    sync.Mutex
	texts [][]byte
}

func (r *recordingConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("not implemented")
}

func (r *recordingConn) WriteMessage(messageType int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if messageType == websocket.TextMessage {
		r.texts = append(r.texts, data)
	}
	return nil
}

func (r *recordingConn) SetReadDeadline(t time.Time) error   { return nil }
func (r *recordingConn) SetWriteDeadline(t time.Time) error  { return nil }
func (r *recordingConn) SetReadLimit(limit int64)            {}
func (r *recordingConn) SetPongHandler(h func(string) error) {}
func (r *recordingConn) Close() error                        { return nil }

func (r *recordingConn) frames(t *testing.T, want int) []map[string]interface{} {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.texts) >= want
	}, time.Second, 10*time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(r.texts))
	for _, raw := range r.texts {
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		out = append(out, decoded)
	}
	return out
}

func wsConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   time.Second,
		PongWait:       2 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     8,
	}
}

// connect registers a pumping client for the user and returns it with
// its recording transport.
func connect(t *testing.T, reg *hub.Registry, userID uint, username string) (*hub.Client, *recordingConn) {
	t.Helper()
	conn := &recordingConn{}
	client := hub.NewClient(userID, username, conn, wsConfig())
	reg.Register(client)
	go client.WritePump()
	t.Cleanup(client.Close)
	return client, conn
}

func newChatFixture(users ...uint) (ChatService, *hub.Registry, *fakeMessageStore) {
	known := make(map[uint]bool, len(users))
	for _, id := range users {
		known[id] = true
	}
	reg := hub.NewRegistry()
	store := &fakeMessageStore{}
	svc := NewChatService(reg, &fakeDirectory{users: known}, store)
	return svc, reg, store
}

func TestHandleFrame_BadJSON(t *testing.T) {
	svc, reg, store := newChatFixture(1, 2)
	sender, conn := connect(t, reg, 1, "alice")

	svc.HandleFrame(context.Background(), sender, []byte(`{not json`))

	frames := conn.frames(t, 1)
	assert.Equal(t, "error", frames[0]["type"])
	assert.Equal(t, domain.ErrCodeBadJSON, frames[0]["code"])
	assert.Zero(t, store.count())

	// The session stays usable: a valid frame afterwards goes through.
	svc.HandleFrame(context.Background(), sender, []byte(`{"recipient_id":2,"contents":"hi"}`))
	assert.Equal(t, 1, store.count())
}

func TestHandleFrame_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing contents", `{"recipient_id":2}`},
		{"missing recipient", `{"contents":"hi"}`},
		{"wrong field type", `{"recipient_id":"two","contents":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, reg, store := newChatFixture(1, 2)
			sender, conn := connect(t, reg, 1, "alice")

			svc.HandleFrame(context.Background(), sender, []byte(tt.raw))

			frames := conn.frames(t, 1)
			assert.Equal(t, domain.ErrCodeValidation, frames[0]["code"])
			assert.Zero(t, store.count())
		})
	}
}

func TestHandleFrame_RecipientNotFound(t *testing.T) {
	svc, reg, store := newChatFixture(1)
	sender, conn := connect(t, reg, 1, "alice")

	svc.HandleFrame(context.Background(), sender, []byte(`{"recipient_id":99,"contents":"hi"}`))

	frames := conn.frames(t, 1)
	assert.Equal(t, domain.ErrCodeRecipientNotFound, frames[0]["code"])
	assert.Zero(t, store.count(), "unknown recipient must not be written to the store")
}

func TestHandleFrame_StoreFailure(t *testing.T) {
	svc, reg, store := newChatFixture(1, 2)
	sender, senderConn := connect(t, reg, 1, "alice")
	_, recipientConn := connect(t, reg, 2, "bob")

	store.failNext = true
	svc.HandleFrame(context.Background(), sender, []byte(`{"recipient_id":2,"contents":"hi"}`))

	frames := senderConn.frames(t, 1)
	assert.Equal(t, domain.ErrCodeDBError, frames[0]["code"])

	// No fan-out for a message that was never persisted.
	time.Sleep(50 * time.Millisecond)
	recipientConn.mu.Lock()
	assert.Empty(t, recipientConn.texts)
	recipientConn.mu.Unlock()
}

func TestHandleFrame_DeliversToAllRecipientDevices(t *testing.T) {
	svc, reg, store := newChatFixture(1, 2)
	sender, senderConn := connect(t, reg, 1, "alice")
	_, d1 := connect(t, reg, 2, "bob")
	_, d2 := connect(t, reg, 2, "bob")

	svc.HandleFrame(context.Background(), sender, []byte(`{"recipient_id":2,"contents":"hi"}`))

	for _, conn := range []*recordingConn{d1, d2} {
		frames := conn.frames(t, 1)
		assert.EqualValues(t, 1, frames[0]["sender_id"])
		assert.Equal(t, "hi", frames[0]["contents"])
		assert.Contains(t, frames[0], "created_at")
	}

	// Exactly one row persisted, no ack to the sender.
	assert.Equal(t, 1, store.count())
	time.Sleep(50 * time.Millisecond)
	senderConn.mu.Lock()
	assert.Empty(t, senderConn.texts)
	senderConn.mu.Unlock()
}

func TestHandleFrame_OfflineRecipientIsNotAnError(t *testing.T) {
	svc, reg, store := newChatFixture(1, 2)
	sender, senderConn := connect(t, reg, 1, "alice")

	svc.HandleFrame(context.Background(), sender, []byte(`{"recipient_id":2,"contents":"hi"}`))

	assert.Equal(t, 1, store.count())

	time.Sleep(50 * time.Millisecond)
	senderConn.mu.Lock()
	assert.Empty(t, senderConn.texts, "offline recipient must not surface an error to the sender")
	senderConn.mu.Unlock()
}

func TestHandleFrame_PrunesDeadConnectionAndSpares(t *testing.T) {
	svc, reg, store := newChatFixture(1, 2)
	sender, _ := connect(t, reg, 1, "alice")
	dead, _ := connect(t, reg, 2, "bob")
	_, survivorConn := connect(t, reg, 2, "bob")

	// Break one of the recipient's devices before the send.
	dead.Close()

	svc.HandleFrame(context.Background(), sender, []byte(`{"recipient_id":2,"contents":"hi"}`))

	// The surviving device got the message.
	frames := survivorConn.frames(t, 1)
	assert.Equal(t, "hi", frames[0]["contents"])

	// The dead device was pruned from the registry; the survivor and
	// the sender both remain registered.
	require.Len(t, reg.ConnectionsFor(2), 1)
	assert.NotSame(t, dead, reg.ConnectionsFor(2)[0])
	assert.Len(t, reg.ConnectionsFor(1), 1)

	// The sender's own connection stayed usable throughout.
	assert.Equal(t, 1, store.count())
	svc.HandleFrame(context.Background(), sender, []byte(`{"recipient_id":2,"contents":"again"}`))
	assert.Equal(t, 2, store.count())
}

func TestHistory_UnknownPeer(t *testing.T) {
	svc, _, _ := newChatFixture(1)

	_, err := svc.History(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestHistory_ReturnsConversation(t *testing.T) {
	svc, _, store := newChatFixture(1, 2)

	_, err := store.Append(context.Background(), 1, 2, "hello")
	require.NoError(t, err)
	_, err = store.Append(context.Background(), 2, 1, "hey")
	require.NoError(t, err)
	_, err = store.Append(context.Background(), 1, 3, "unrelated")
	require.NoError(t, err)

	messages, err := svc.History(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Contents)
	assert.Equal(t, "hey", messages[1].Contents)
}
