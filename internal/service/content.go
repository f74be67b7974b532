package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/auth"
	"github.com/emilythestrangee/postboard/backend/internal/models"
	"github.com/emilythestrangee/postboard/backend/internal/policy"
	"github.com/emilythestrangee/postboard/backend/internal/repository"
)

// ContentService exposes post and comment operations to handlers. Owner
// fields, timestamps and counters are always derived here or in the store,
// never taken from the caller.
type ContentService struct {
	repo   repository.Content
	logger *logrus.Logger
}

func NewContentService(repo repository.Content, logger *logrus.Logger) *ContentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ContentService{repo: repo, logger: logger}
}

func (s *ContentService) CreatePost(ctx context.Context, owner auth.Identity, fields models.PostFields) (*models.Post, error) {
	post, err := s.repo.CreatePost(ctx, owner.ID, fields)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"post_id": post.ID, "user_id": owner.ID}).Info("post created")
	return post, nil
}

func (s *ContentService) GetPost(ctx context.Context, id int) (*models.Post, error) {
	return s.repo.GetPost(ctx, id)
}

func (s *ContentService) ListPosts(ctx context.Context, filter models.PostFilter, sort models.PostSort) ([]models.PostListing, error) {
	return s.repo.ListPosts(ctx, filter, sort)
}

// UpdatePost applies patch if caller owns the post.
func (s *ContentService) UpdatePost(ctx context.Context, caller auth.Identity, id int, patch models.PostPatch) (*models.Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, post); err != nil {
		s.logger.WithFields(logrus.Fields{"post_id": id, "user_id": caller.ID, "owner_id": post.UserID}).Warn("update denied")
		return nil, err
	}
	return s.repo.UpdatePost(ctx, id, patch)
}

// DeletePost removes the post and its comments if caller owns it.
func (s *ContentService) DeletePost(ctx context.Context, caller auth.Identity, id int) error {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, post); err != nil {
		s.logger.WithFields(logrus.Fields{"post_id": id, "user_id": caller.ID, "owner_id": post.UserID}).Warn("delete denied")
		return err
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"post_id": id, "user_id": caller.ID}).Info("post deleted")
	return nil
}

// AdjustVote increments a counter. Any authenticated identity may vote,
// including the owner, and repeat votes all count.
func (s *ContentService) AdjustVote(ctx context.Context, voter auth.Identity, id int, dir models.VoteDirection) (*models.Post, error) {
	if dir != models.VoteUp && dir != models.VoteDown {
		return nil, fmt.Errorf("unknown vote direction %q", dir)
	}
	post, err := s.repo.AdjustVote(ctx, id, dir)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"post_id": id, "user_id": voter.ID, "direction": dir}).Debug("vote recorded")
	return post, nil
}

func (s *ContentService) CreateComment(ctx context.Context, author auth.Identity, postID int, fields models.CommentFields) (*models.Comment, error) {
	comment, err := s.repo.CreateComment(ctx, author.ID, postID, fields)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"comment_id": comment.ID, "post_id": postID, "user_id": author.ID}).Info("comment created")
	return comment, nil
}

func (s *ContentService) ListComments(ctx context.Context, postID int) ([]models.CommentListing, error) {
	return s.repo.ListComments(ctx, postID)
}
