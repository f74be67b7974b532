package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/models"
	"github.com/emilythestrangee/postboard/backend/internal/service"
)

type CommentHandler struct {
	content *service.ContentService
	logger  *logrus.Logger
}

func NewCommentHandler(content *service.ContentService, logger *logrus.Logger) *CommentHandler {
	return &CommentHandler{content: content, logger: logger}
}

// GetComments returns all comments for a post with their authors
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	comments, err := h.content.ListComments(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	comment, err := h.content.CreateComment(c.Request.Context(), identity, postID, models.CommentFields{Content: input.Content})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
