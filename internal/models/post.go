package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a social board post stored in MongoDB
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        uint               `json:"user_id" bson:"user_id"` // ID of the user who created the post
	Title         string             `json:"title" bson:"title"`
	Content       string             `json:"content" bson:"content"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// PostCompact is the minimal post projection attached to enriched notifications
type PostCompact struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ToCompact returns the compact projection of the post
func (p *Post) ToCompact() PostCompact {
	return PostCompact{
		ID:    p.ID.Hex(),
		Title: p.Title,
	}
}
