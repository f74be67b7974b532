package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/service"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(accounts *service.AccountService, content *service.ContentService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		Auth:    NewAuthHandler(accounts, logger),
		Post:    NewPostHandler(content, logger),
		Comment: NewCommentHandler(content, logger),
	}
}
