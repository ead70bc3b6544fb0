package domain

// FollowModel is the GORM model for the follows table.
// The (follower_id, followee_id) pair forms the composite primary key.
type FollowModel struct {
	FollowerID uint `gorm:"primaryKey;index;not null"`
	FolloweeID uint `gorm:"primaryKey;index;not null"`
}

// TableName specifies the table name for FollowModel.
func (FollowModel) TableName() string {
	return "follows"
}
