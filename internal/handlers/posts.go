package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/models"
	"github.com/emilythestrangee/postboard/backend/internal/service"
)

type PostHandler struct {
	content *service.ContentService
	logger  *logrus.Logger
}

func NewPostHandler(content *service.ContentService, logger *logrus.Logger) *PostHandler {
	return &PostHandler{content: content, logger: logger}
}

// GetPosts lists posts, newest first unless sortBy=upvotes, optionally
// filtered by category
func (h *PostHandler) GetPosts(c *gin.Context) {
	filter := models.PostFilter{Category: c.Query("category")}
	sort := models.ParsePostSort(c.Query("sortBy"))

	posts, err := h.content.ListPosts(c.Request.Context(), filter, sort)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.content.GetPost(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	post, err := h.content.CreatePost(c.Request.Context(), identity, models.PostFields{
		Content:  input.Content,
		Image:    input.Image,
		Category: input.Category,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	post, err := h.content.UpdatePost(c.Request.Context(), identity, id, models.PostPatch{
		Content:  input.Content,
		Category: input.Category,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post and its comments (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.content.DeletePost(c.Request.Context(), identity, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Upvote adds one upvote (PROTECTED - requires authentication)
func (h *PostHandler) Upvote(c *gin.Context) {
	h.vote(c, models.VoteUp)
}

// Downvote adds one downvote (PROTECTED - requires authentication)
func (h *PostHandler) Downvote(c *gin.Context) {
	h.vote(c, models.VoteDown)
}

func (h *PostHandler) vote(c *gin.Context, dir models.VoteDirection) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := h.content.AdjustVote(c.Request.Context(), identity, id, dir)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, post)
}
