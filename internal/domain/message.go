package domain

import "time"

// MessageModel is the GORM model for the messages table. Messages are
// append-only; no update or delete path exists.
type MessageModel struct {
	ID          uint      `gorm:"primaryKey"`
	SenderID    uint      `gorm:"index;not null"`
	RecipientID uint      `gorm:"index;not null"`
	Contents    string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Contents:    m.Contents,
		CreatedAt:   m.CreatedAt,
	}
}

// Message is one persisted chat message.
type Message struct {
	ID          uint
	SenderID    uint
	RecipientID uint
	Contents    string
	CreatedAt   time.Time
}

// ToResponse converts a Message to its public representation.
func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Contents:    m.Contents,
		CreatedAt:   m.CreatedAt,
	}
}

// MessageResponse is the public message representation returned by the
// history endpoint.
type MessageResponse struct {
	ID          uint      `json:"id"`
	SenderID    uint      `json:"sender_id"`
	RecipientID uint      `json:"recipient_id"`
	Contents    string    `json:"contents"`
	CreatedAt   time.Time `json:"created_at"`
}
