package domain

import "time"

// PostModel is the GORM model for the posts table.
type PostModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Contents  string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for PostModel.
func (PostModel) TableName() string {
	return "posts"
}

// Post is a post joined with its author's username.
type Post struct {
	ID        uint
	UserID    uint
	Username  string
	Contents  string
	CreatedAt time.Time
}

// ToResponse converts a Post to its public representation.
func (p *Post) ToResponse() PostResponse {
	return PostResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Username:  p.Username,
		Contents:  p.Contents,
		CreatedAt: p.CreatedAt,
	}
}

// PostResponse is the public post representation.
type PostResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Contents  string    `json:"contents"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePostRequest is the payload for post creation.
type CreatePostRequest struct {
	Contents string `json:"contents" binding:"required"`
}
