package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yildiz-fatih/lazybook/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM. It is
// the durable append-only store behind the chat subsystem; rows are
// never updated or deleted here.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Append persists a new message and returns it with its assigned id
// and timestamp.
func (r *GormMessageRepository) Append(ctx context.Context, senderID, recipientID uint, contents string) (*domain.Message, error) {
	model := &domain.MessageModel{
		SenderID:    senderID,
		RecipientID: recipientID,
		Contents:    contents,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// History returns all messages exchanged between the two users in
// either direction. Ordering is ascending by created_at with the id as
// tie-break, so same-timestamp inserts keep their insertion order.
func (r *GormMessageRepository) History(ctx context.Context, userA, userB uint) ([]domain.Message, error) {
	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at asc, id asc").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	messages := make([]domain.Message, 0, len(models))
	for i := range models {
		messages = append(messages, *models[i].ToDomain())
	}
	return messages, nil
}
