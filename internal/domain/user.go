package domain

import (
	"time"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(128);not null"`
	Status       string    `gorm:"not null;default:''"`
	PictureURL   string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Status:       m.Status,
		PictureURL:   m.PictureURL,
		CreatedAt:    m.CreatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Status:       u.Status,
		PictureURL:   u.PictureURL,
		CreatedAt:    u.CreatedAt,
	}
}

// User is the domain representation of an account.
type User struct {
	ID           uint
	Username     string
	PasswordHash string
	Status       string
	PictureURL   string
	CreatedAt    time.Time
}

// ToResponse converts a User to its public representation.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Status:   u.Status,
	}
}

// UserResponse is the public user representation.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

// Relationship describes how the viewer relates to a profile.
type Relationship struct {
	IsSelf    bool `json:"is_self"`
	IFollow   bool `json:"i_follow"`
	FollowsMe bool `json:"follows_me"`
}

// ProfileResponse is a user profile with follow counts and the
// viewer's relationship to it.
type ProfileResponse struct {
	ID             uint         `json:"id"`
	Username       string       `json:"username"`
	Status         string       `json:"status"`
	PictureURL     string       `json:"picture_url,omitempty"`
	FollowersCount int64        `json:"followers_count"`
	FollowingCount int64        `json:"following_count"`
	Relationship   Relationship `json:"relationship"`
}
// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=10,max=30"`
}

// LoginRequest is the payload for credential verification.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UpdateUserRequest is the payload for profile updates.
type UpdateUserRequest struct {
	Status string `json:"status"`
}
