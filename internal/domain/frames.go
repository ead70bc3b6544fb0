package domain

import "time"

// Websocket error codes sent to the originating connection. Error frames
// never close the connection; only transport failure does.
const (
	ErrCodeBadJSON           = "bad_json"
	ErrCodeValidation        = "validation_error"
	ErrCodeRecipientNotFound = "recipient_not_found"
	ErrCodeDBError           = "db_error"
)

// ChatFrame is the inbound websocket payload.
type ChatFrame struct {
	RecipientID uint   `json:"recipient_id"`
	Contents    string `json:"contents"`
}

// Valid reports whether the frame has the required shape.
func (f *ChatFrame) Valid() bool {
	return f.RecipientID != 0 && f.Contents != ""
}

// DeliveredFrame is the outbound payload pushed to each of the
// recipient's live connections. The recipient id is implicit from the
// registry entry the connection was found under.
type DeliveredFrame struct {
	SenderID  uint      `json:"sender_id"`
	Contents  string    `json:"contents"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorFrame is the outbound structured error payload.
type ErrorFrame struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// NewErrorFrame builds an error frame for the given code.
func NewErrorFrame(code string) *ErrorFrame {
	return &ErrorFrame{Type: "error", Code: code}
}
