// Package repository persists users, posts and comments. Callers are trusted
// to have applied the ownership policy before UpdatePost and DeletePost.
package repository

import (
	"context"

	"github.com/emilythestrangee/postboard/backend/internal/models"
)

// Users stores registered identities.
type Users interface {
	// CreateUser assigns u.ID and u.CreatedAt. It returns
	// apperror.ErrDuplicateEmail when the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Content stores posts, comments and vote counters.
type Content interface {
	CreatePost(ctx context.Context, ownerID int, fields models.PostFields) (*models.Post, error)
	GetPost(ctx context.Context, id int) (*models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter, sort models.PostSort) ([]models.PostListing, error)
	UpdatePost(ctx context.Context, id int, patch models.PostPatch) (*models.Post, error)
	// DeletePost removes the post and every comment that references it.
	DeletePost(ctx context.Context, id int) error
	// AdjustVote increments one counter by exactly one as a single atomic
	// store operation.
	AdjustVote(ctx context.Context, id int, dir models.VoteDirection) (*models.Post, error)
	CreateComment(ctx context.Context, authorID, postID int, fields models.CommentFields) (*models.Comment, error)
	ListComments(ctx context.Context, postID int) ([]models.CommentListing, error)
}

type Repository interface {
	Users
	Content
}
