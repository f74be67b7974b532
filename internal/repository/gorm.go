package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
	"github.com/emilythestrangee/postboard/backend/internal/models"
)

// DefaultTimeout bounds every store call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

type GormRepository struct {
	db      *gorm.DB
	timeout time.Duration
	logger  *logrus.Logger
}

func NewGormRepository(db *gorm.DB, timeout time.Duration, logger *logrus.Logger) *GormRepository {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GormRepository{db: db, timeout: timeout, logger: logger}
}

func (r *GormRepository) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func (r *GormRepository) CreateUser(ctx context.Context, u *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	u.ID = 0
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = time.Now().UTC()
	if err := db.Omit(clause.Associations).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrDuplicateEmail
		}
		return r.fail("create user", err, logrus.Fields{"email": u.Email})
	}
	return nil
}

func (r *GormRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var u models.User
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, r.fail("find user by email", err, nil)
	}
	return &u, nil
}

func (r *GormRepository) CreatePost(ctx context.Context, ownerID int, fields models.PostFields) (*models.Post, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	post := models.Post{
		Content:   fields.Content,
		Image:     fields.Image,
		Category:  fields.Category,
		CreatedAt: time.Now().UTC(),
		UserID:    ownerID,
	}
	if err := db.Omit(clause.Associations).Create(&post).Error; err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, r.fail("create post", err, logrus.Fields{"user_id": ownerID})
	}
	return &post, nil
}

func (r *GormRepository) GetPost(ctx context.Context, id int) (*models.Post, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var post models.Post
	if err := db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, r.fail("get post", err, logrus.Fields{"post_id": id})
	}
	return &post, nil
}

func (r *GormRepository) ListPosts(ctx context.Context, filter models.PostFilter, sort models.PostSort) ([]models.PostListing, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	q := db.Model(&models.Post{}).Preload("User", selectAuthor)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if sort == models.SortByUpvotes {
		q = q.Order("upvotes DESC")
	} else {
		q = q.Order("created_at DESC")
	}

	var posts []models.Post
	if err := q.Order("id ASC").Find(&posts).Error; err != nil {
		return nil, r.fail("list posts", err, logrus.Fields{"category": filter.Category, "sort": sort})
	}

	listings := make([]models.PostListing, 0, len(posts))
	if len(posts) == 0 {
		return listings, nil
	}

	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	var comments []models.Comment
	if err := db.Select("content", "user_id", "post_id").
		Where("post_id IN ?", ids).
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, r.fail("list post comments", err, nil)
	}
	byPost := make(map[int][]models.CommentSummary, len(posts))
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], models.CommentSummary{
			Content: c.Content,
			UserID:  c.UserID,
			PostID:  c.PostID,
		})
	}

	for _, p := range posts {
		summaries := byPost[p.ID]
		if summaries == nil {
			summaries = []models.CommentSummary{}
		}
		listings = append(listings, models.PostListing{
			Post:     p,
			Author:   models.AuthorSummary{Username: p.User.Username, Email: p.User.Email},
			Comments: summaries,
		})
	}
	return listings, nil
}

func (r *GormRepository) UpdatePost(ctx context.Context, id int, patch models.PostPatch) (*models.Post, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	updates := map[string]any{}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}

	var post models.Post
	err := db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Model(&models.Post{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperror.ErrNotFound
			}
		}
		if err := tx.First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, r.fail("update post", err, logrus.Fields{"post_id": id})
	}
	return &post, nil
}

func (r *GormRepository) DeletePost(ctx context.Context, id int) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return r.fail("delete post", err, logrus.Fields{"post_id": id})
	}
	return nil
}

func (r *GormRepository) AdjustVote(ctx context.Context, id int, dir models.VoteDirection) (*models.Post, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	column := dir.Column()
	var post models.Post
	res := db.Model(&post).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return nil, r.fail("adjust vote", res.Error, logrus.Fields{"post_id": id, "direction": dir})
	}
	if res.RowsAffected == 0 {
		return nil, apperror.ErrNotFound
	}
	return &post, nil
}

func (r *GormRepository) CreateComment(ctx context.Context, authorID, postID int, fields models.CommentFields) (*models.Comment, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	comment := models.Comment{
		Content:   fields.Content,
		CreatedAt: time.Now().UTC(),
		UserID:    authorID,
		PostID:    postID,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		// Share lock keeps the post from being deleted until the comment lands.
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return err
		}
		return tx.Omit(clause.Associations).Create(&comment).Error
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || isForeignKeyViolation(err) {
			return nil, apperror.ErrNotFound
		}
		return nil, r.fail("create comment", err, logrus.Fields{"post_id": postID, "user_id": authorID})
	}
	return &comment, nil
}

func (r *GormRepository) ListComments(ctx context.Context, postID int) ([]models.CommentListing, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var comments []models.Comment
	if err := db.Preload("User", selectAuthor).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, r.fail("list comments", err, logrus.Fields{"post_id": postID})
	}

	listings := make([]models.CommentListing, 0, len(comments))
	for _, c := range comments {
		listings = append(listings, models.CommentListing{
			Comment: c,
			Author:  models.AuthorIdentity{ID: c.User.ID, Username: c.User.Username, Email: c.User.Email},
		})
	}
	return listings, nil
}

// fail logs a store error and classifies it. Timeouts and connection
// failures become apperror.ErrStoreUnavailable.
func (r *GormRepository) fail(op string, err error, fields logrus.Fields) error {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["op"] = op
	entry := r.logger.WithFields(fields).WithError(err)
	if isUnavailable(err) {
		entry.Warn("store unavailable")
		return fmt.Errorf("%s: %w: %w", op, apperror.ErrStoreUnavailable, err)
	}
	entry.Error("store operation failed")
	return fmt.Errorf("%s: %w", op, err)
}

func selectAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "email")
}

// NormalizeEmail lower-cases and trims an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

var _ Repository = (*GormRepository)(nil)
