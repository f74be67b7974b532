package models

import "time"

type Post struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Image     string    `json:"image,omitempty"`
	Category  string    `gorm:"size:50;index" json:"category"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	Upvotes   int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int       `gorm:"not null;default:0" json:"downvotes"`
	UserID    int       `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

// OwnerID returns the id of the user that created the post.
func (p Post) OwnerID() int { return p.UserID }

// PostFields are the caller-supplied fields accepted on creation.
type PostFields struct {
	Content  string
	Image    string
	Category string
}

// PostPatch lists the fields an owner may change. Nil means unchanged.
type PostPatch struct {
	Content  *string
	Category *string
}

type PostFilter struct {
	Category string
}

type PostSort string

const (
	SortByCreatedAt PostSort = "created_at"
	SortByUpvotes   PostSort = "upvotes"
)

// ParsePostSort maps the sortBy query value; anything but "upvotes" is newest first.
func ParsePostSort(s string) PostSort {
	if s == "upvotes" {
		return SortByUpvotes
	}
	return SortByCreatedAt
}

type AuthorSummary struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CommentSummary struct {
	Content string `json:"content"`
	UserID  int    `json:"user_id"`
	PostID  int    `json:"post_id"`
}

// PostListing is a post joined with its author and comments.
type PostListing struct {
	Post
	Author   AuthorSummary    `json:"user"`
	Comments []CommentSummary `json:"comments"`
}

type CreatePostRequest struct {
	Content  string `json:"content" binding:"required"`
	Image    string `json:"image" binding:"omitempty,max=2048"`
	Category string `json:"category" binding:"max=50"`
}

type UpdatePostRequest struct {
	Content  *string `json:"content" binding:"omitempty,min=1"`
	Category *string `json:"category" binding:"omitempty,max=50"`
}
