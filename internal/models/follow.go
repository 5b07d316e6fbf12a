package models

import "time"

// Follow statuses
const (
	FollowStatusPending  = "pending"
	FollowStatusAccepted = "accepted"
)

// Follow represents a follow relationship between two users
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	Status      string    `json:"status" gorm:"size:20;default:accepted"` // pending, accepted
	CreatedAt   time.Time `json:"created_at"`
}
