package models

import "time"

type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UserID    int       `gorm:"not null;index" json:"user_id"`
	PostID    int       `gorm:"not null;index" json:"post_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// OwnerID returns the id of the comment author.
func (c Comment) OwnerID() int { return c.UserID }

type CommentFields struct {
	Content string
}

type AuthorIdentity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CommentListing is a comment joined with its author.
type CommentListing struct {
	Comment
	Author AuthorIdentity `json:"user"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
