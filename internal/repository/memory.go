package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
	"github.com/emilythestrangee/postboard/backend/internal/models"
)

// MemoryRepository is a mutex-guarded Repository for tests and local runs
// without Postgres. It follows the same ordering and error rules as
// GormRepository.
type MemoryRepository struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int
	users    map[int]models.User
	emails   map[string]int
	posts    map[int]models.Post
	comments map[int]models.Comment
}

type MemoryOption func(*MemoryRepository)

// WithNow overrides the clock used for createdAt timestamps.
func WithNow(now func() time.Time) MemoryOption {
	return func(r *MemoryRepository) { r.now = now }
}

func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	r := &MemoryRepository{
		now:      time.Now,
		users:    map[int]models.User{},
		emails:   map[string]int{},
		posts:    map[int]models.Post{},
		comments: map[int]models.Comment{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRepository) id() int {
	r.nextID++
	return r.nextID
}

func (r *MemoryRepository) CreateUser(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(u.Email)
	if _, taken := r.emails[email]; taken {
		return apperror.ErrDuplicateEmail
	}
	u.ID = r.id()
	u.Email = email
	u.CreatedAt = r.now().UTC()
	r.users[u.ID] = *u
	r.emails[email] = u.ID
	return nil
}

func (r *MemoryRepository) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.emails[NormalizeEmail(email)]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	u := r.users[id]
	return &u, nil
}

func (r *MemoryRepository) CreatePost(_ context.Context, ownerID int, fields models.PostFields) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[ownerID]; !ok {
		return nil, apperror.ErrNotFound
	}
	post := models.Post{
		ID:        r.id(),
		Content:   fields.Content,
		Image:     fields.Image,
		Category:  fields.Category,
		CreatedAt: r.now().UTC(),
		UserID:    ownerID,
	}
	r.posts[post.ID] = post
	return &post, nil
}

func (r *MemoryRepository) GetPost(_ context.Context, id int) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return &post, nil
}

func (r *MemoryRepository) ListPosts(_ context.Context, filter models.PostFilter, order models.PostSort) ([]models.PostListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if order == models.SortByUpvotes {
			if a.Upvotes != b.Upvotes {
				return a.Upvotes > b.Upvotes
			}
		} else if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	comments := r.sortedComments()
	listings := make([]models.PostListing, 0, len(posts))
	for _, p := range posts {
		summaries := []models.CommentSummary{}
		for _, c := range comments {
			if c.PostID == p.ID {
				summaries = append(summaries, models.CommentSummary{Content: c.Content, UserID: c.UserID, PostID: c.PostID})
			}
		}
		author := r.users[p.UserID]
		listings = append(listings, models.PostListing{
			Post:     p,
			Author:   models.AuthorSummary{Username: author.Username, Email: author.Email},
			Comments: summaries,
		})
	}
	return listings, nil
}

func (r *MemoryRepository) UpdatePost(_ context.Context, id int, patch models.PostPatch) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Category != nil {
		post.Category = *patch.Category
	}
	r.posts[id] = post
	return &post, nil
}

func (r *MemoryRepository) DeletePost(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return apperror.ErrNotFound
	}
	for cid, c := range r.comments {
		if c.PostID == id {
			delete(r.comments, cid)
		}
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryRepository) AdjustVote(_ context.Context, id int, dir models.VoteDirection) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	if dir == models.VoteDown {
		post.Downvotes++
	} else {
		post.Upvotes++
	}
	r.posts[id] = post
	return &post, nil
}

func (r *MemoryRepository) CreateComment(_ context.Context, authorID, postID int, fields models.CommentFields) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[postID]; !ok {
		return nil, apperror.ErrNotFound
	}
	comment := models.Comment{
		ID:        r.id(),
		Content:   fields.Content,
		CreatedAt: r.now().UTC(),
		UserID:    authorID,
		PostID:    postID,
	}
	r.comments[comment.ID] = comment
	return &comment, nil
}

func (r *MemoryRepository) ListComments(_ context.Context, postID int) ([]models.CommentListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listings := []models.CommentListing{}
	for _, c := range r.sortedComments() {
		if c.PostID != postID {
			continue
		}
		author := r.users[c.UserID]
		listings = append(listings, models.CommentListing{
			Comment: c,
			Author:  models.AuthorIdentity{ID: author.ID, Username: author.Username, Email: author.Email},
		})
	}
	return listings, nil
}

// sortedComments returns every comment ordered by id. Callers hold r.mu.
func (r *MemoryRepository) sortedComments() []models.Comment {
	out := make([]models.Comment, 0, len(r.comments))
	for _, c := range r.comments {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ Repository = (*MemoryRepository)(nil)
