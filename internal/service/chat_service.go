package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yildiz-fatih/lazybook/internal/domain"
	"github.com/yildiz-fatih/lazybook/internal/hub"
	"github.com/yildiz-fatih/lazybook/internal/repository"
	"github.com/yildiz-fatih/lazybook/pkg/log"
)

// chatService implements ChatService. It runs inside each connection's
// goroutine; the registry is the only shared state it touches.
type chatService struct {
	registry  *hub.Registry
	directory UserDirectory
	messages  repository.MessageRepository
}

// NewChatService creates a new chat service.
func NewChatService(registry *hub.Registry, directory UserDirectory, messages repository.MessageRepository) ChatService {
	return &chatService{
		registry:  registry,
		directory: directory,
		messages:  messages,
	}
}

// HandleFrame processes one inbound frame: decode, validate, resolve
// the recipient, persist, fan out. Every failure is answered with a
// structured error frame on the originating connection and the session
// stays active; only the transport can end it.
func (s *chatService) HandleFrame(ctx context.Context, c *hub.Client, raw []byte) {
	l := log.Ctx(ctx)

	var frame domain.ChatFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			s.reply(c, domain.ErrCodeValidation)
		} else {
			s.reply(c, domain.ErrCodeBadJSON)
		}
		return
	}

	if !frame.Valid() {
		s.reply(c, domain.ErrCodeValidation)
		return
	}

	exists, err := s.directory.UserExists(ctx, frame.RecipientID)
	if err != nil {
		l.Error().Err(err).Uint(log.FieldRecipientID, frame.RecipientID).Msg("recipient lookup failed")
		s.reply(c, domain.ErrCodeDBError)
		return
	}
	if !exists {
		s.reply(c, domain.ErrCodeRecipientNotFound)
		return
	}

	msg, err := s.messages.Append(ctx, c.UserID(), frame.RecipientID, frame.Contents)
	if err != nil {
		l.Error().Err(err).
			Uint(log.FieldUserID, c.UserID()).
			Uint(log.FieldRecipientID, frame.RecipientID).
			Msg("failed to persist message")
		s.reply(c, domain.ErrCodeDBError)
		return
	}

	s.fanOut(msg)
}

// History returns the conversation between the caller and a peer.
func (s *chatService) History(ctx context.Context, userID, peerID uint) ([]domain.MessageResponse, error) {
	exists, err := s.directory.UserExists(ctx, peerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	messages, err := s.messages.History(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MessageResponse, 0, len(messages))
	for i := range messages {
		resp = append(resp, messages[i].ToResponse())
	}
	return resp, nil
}

// fanOut pushes a persisted message to every live connection of its
// recipient. Pushes are independent: one dead connection never blocks
// the rest and never reaches back to the sender. Connections whose
// push failed are pruned after the pass, not mid-iteration.
func (s *chatService) fanOut(msg *domain.Message) {
	targets := s.registry.ConnectionsFor(msg.RecipientID)
	if len(targets) == 0 {
		// Offline recipient: the message stays retrievable via
		// history, nothing to do.
		return
	}

	frame := &domain.DeliveredFrame{
		SenderID:  msg.SenderID,
		Contents:  msg.Contents,
		CreatedAt: msg.CreatedAt,
	}

	var stale []*hub.Client
	for _, conn := range targets {
		if err := conn.Send(frame); err != nil {
			stale = append(stale, conn)
		}
	}

	for _, conn := range stale {
		s.registry.Unregister(conn)
		conn.Close()
		log.L().Info().
			Str(log.FieldConnID, conn.ID()).
			Uint(log.FieldUserID, conn.UserID()).
			Msg("pruned dead connection during fan-out")
	}
}

// reply sends an error frame to the originating connection. A failed
// reply means that connection is already dying; its own read loop will
// notice and clean up.
func (s *chatService) reply(c *hub.Client, code string) {
	if err := c.Send(domain.NewErrorFrame(code)); err != nil {
		log.L().Debug().
			Str(log.FieldConnID, c.ID()).
			Str("code", code).
			Msg("failed to deliver error frame")
	}
}
