package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
	"github.com/emilythestrangee/postboard/backend/internal/auth"
	"github.com/emilythestrangee/postboard/backend/internal/middleware"
	"github.com/emilythestrangee/postboard/backend/internal/models"
	"github.com/emilythestrangee/postboard/backend/internal/repository"
)

type fixture struct {
	repo     *repository.MemoryRepository
	tokens   *auth.TokenService
	accounts *AccountService
	content  *ContentService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T, opts ...repository.MemoryOption) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepository(opts...)
	tokens, err := auth.NewTokenService("service-secret")
	require.NoError(t, err)
	log := quietLogger()
	return &fixture{
		repo:     repo,
		tokens:   tokens,
		accounts: NewAccountService(repo, tokens, log),
		content:  NewContentService(repo, log),
	}
}

// identity registers a user and returns the identity its token carries.
func (f *fixture) identity(t *testing.T, name string) auth.Identity {
	t.Helper()
	ctx := context.Background()
	email := name + "@example.com"
	_, err := f.accounts.Register(ctx, RegisterInput{Username: name, Email: email, Password: "pw-" + name})
	require.NoError(t, err)
	tok, err := f.accounts.Login(ctx, email, "pw-"+name)
	require.NoError(t, err)
	id, err := f.tokens.Verify(tok.Value)
	require.NoError(t, err)
	return id
}

func str(s string) *string { return &s }

func TestRegisterLoginAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.accounts.Register(ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "hunter2", u.PasswordHash)
	assert.True(t, auth.VerifyPassword("hunter2", u.PasswordHash))

	tok, err := f.accounts.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTTL, tok.ExpiresAt.Sub(tok.IssuedAt))

	id, err := middleware.Authenticate(f.tokens, "Bearer "+tok.Value)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{ID: u.ID, Username: "alice", Email: "alice@example.com"}, id)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, RegisterInput{Username: "a", Email: "dup@example.com", Password: "x"})
	require.NoError(t, err)
	_, err = f.accounts.Register(ctx, RegisterInput{Username: "b", Email: " DUP@example.com ", Password: "y"})
	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.identity(t, "dave")

	_, errUnknown := f.accounts.Login(ctx, "nobody@example.com", "pw-dave")
	_, errWrong := f.accounts.Login(ctx, "dave@example.com", "wrong")

	assert.ErrorIs(t, errUnknown, apperror.ErrAuthFailed)
	assert.ErrorIs(t, errWrong, apperror.ErrAuthFailed)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestCreatePostDerivesOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.identity(t, "alice")

	post, err := f.content.CreatePost(context.Background(), alice, models.PostFields{Content: "hello", Category: "news"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, post.UserID)
	assert.Zero(t, post.Upvotes)
	assert.Zero(t, post.Downvotes)
	assert.False(t, post.CreatedAt.IsZero())
}

func TestUpdatePostOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.identity(t, "alice")
	bob := f.identity(t, "bob")

	post, err := f.content.CreatePost(ctx, alice, models.PostFields{Content: "original", Category: "misc"})
	require.NoError(t, err)

	_, err = f.content.UpdatePost(ctx, bob, post.ID, models.PostPatch{Content: str("hijacked")})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := f.content.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Content)

	updated, err := f.content.UpdatePost(ctx, alice, post.ID, models.PostPatch{Content: str("edited")})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, "misc", updated.Category)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)

	_, err = f.content.UpdatePost(ctx, alice, 999, models.PostPatch{Content: str("x")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeletePostCascadesComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.identity(t, "alice")
	bob := f.identity(t, "bob")

	post, err := f.content.CreatePost(ctx, alice, models.PostFields{Content: "doomed"})
	require.NoError(t, err)
	_, err = f.content.CreateComment(ctx, bob, post.ID, models.CommentFields{Content: "first"})
	require.NoError(t, err)
	_, err = f.content.CreateComment(ctx, alice, post.ID, models.CommentFields{Content: "second"})
	require.NoError(t, err)

	require.ErrorIs(t, f.content.DeletePost(ctx, bob, post.ID), apperror.ErrForbidden)
	require.NoError(t, f.content.DeletePost(ctx, alice, post.ID))

	_, err = f.content.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	comments, err := f.content.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	assert.ErrorIs(t, f.content.DeletePost(ctx, alice, post.ID), apperror.ErrNotFound)
}

func TestCommentOnMissingPost(t *testing.T) {
	f := newFixture(t)
	alice := f.identity(t, "alice")

	_, err := f.content.CreateComment(context.Background(), alice, 4242, models.CommentFields{Content: "hello?"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListCommentsWithAuthors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.identity(t, "alice")
	bob := f.identity(t, "bob")

	post, err := f.content.CreatePost(ctx, alice, models.PostFields{Content: "p"})
	require.NoError(t, err)
	_, err = f.content.CreateComment(ctx, bob, post.ID, models.CommentFields{Content: "c1"})
	require.NoError(t, err)
	_, err = f.content.CreateComment(ctx, alice, post.ID, models.CommentFields{Content: "c2"})
	require.NoError(t, err)

	comments, err := f.content.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c1", comments[0].Content)
	assert.Equal(t, models.AuthorIdentity{ID: bob.ID, Username: "bob", Email: "bob@example.com"}, comments[0].Author)
	assert.Equal(t, "c2", comments[1].Content)
	assert.Equal(t, alice.ID, comments[1].Author.ID)
}

func TestListPostsSortedByUpvotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.identity(t, "alice")

	want := map[string]int{"five": 5, "one": 1, "three": 3}
	for _, name := range []string{"five", "one", "three"} {
		p, err := f.content.CreatePost(ctx, alice, models.PostFields{Content: name})
		require.NoError(t, err)
		for i := 0; i < want[name]; i++ {
			_, err := f.content.AdjustVote(ctx, alice, p.ID, models.VoteUp)
			require.NoError(t, err)
		}
	}

	listings, err := f.content.ListPosts(ctx, models.PostFilter{}, models.SortByUpvotes)
	require.NoError(t, err)
	require.Len(t, listings, 3)
	got := []int{listings[0].Upvotes, listings[1].Upvotes, listings[2].Upvotes}
	assert.Equal(t, []int{5, 3, 1}, got)
	assert.Equal(t, "alice", listings[0].Author.Username)
}

func TestListPostsNewestFirstAndFiltered(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, repository.WithNow(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()
	alice := f.identity(t, "alice")
	bob := f.identity(t, "bob")

	first, err := f.content.CreatePost(ctx, alice, models.PostFields{Content: "first", Category: "go"})
	require.NoError(t, err)
	second, err := f.content.CreatePost(ctx, bob, models.PostFields{Content: "second", Category: "rust"})
	require.NoError(t, err)
	third, err := f.content.CreatePost(ctx, alice, models.PostFields{Content: "third", Category: "go"})
	require.NoError(t, err)
	_, err = f.content.CreateComment(ctx, bob, first.ID, models.CommentFields{Content: "nice"})
	require.NoError(t, err)

	all, err := f.content.ListPosts(ctx, models.PostFilter{}, models.ParsePostSort(""))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{third.ID, second.ID, first.ID}, []int{all[0].ID, all[1].ID, all[2].ID})

	goOnly, err := f.content.ListPosts(ctx, models.PostFilter{Category: "go"}, models.SortByCreatedAt)
	require.NoError(t, err)
	require.Len(t, goOnly, 2)
	assert.Equal(t, third.ID, goOnly[0].ID)
	assert.Empty(t, goOnly[0].Comments)
	require.Len(t, goOnly[1].Comments, 1)
	assert.Equal(t, models.CommentSummary{Content: "nice", UserID: bob.ID, PostID: first.ID}, goOnly[1].Comments[0])

	none, err := f.content.ListPosts(ctx, models.PostFilter{Category: "haskell"}, models.SortByCreatedAt)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAdjustVoteConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.identity(t, "alice")
	post, err := f.content.CreatePost(ctx, alice, models.PostFields{Content: "popular"})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir := models.VoteUp
			if i%5 == 0 {
				dir = models.VoteDown
			}
			_, err := f.content.AdjustVote(ctx, alice, post.ID, dir)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := f.content.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Upvotes)
	assert.Equal(t, 10, got.Downvotes)
}

func TestAdjustVoteErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.identity(t, "alice")

	_, err := f.content.AdjustVote(ctx, alice, 77, models.VoteUp)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	post, err := f.content.CreatePost(ctx, alice, models.PostFields{Content: "x"})
	require.NoError(t, err)
	_, err = f.content.AdjustVote(ctx, alice, post.ID, models.VoteDirection("sideways"))
	assert.Error(t, err)
}

func TestLoginComparesHashOnEveryFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.identity(t, "erin")

	var hashes []string
	f.accounts.verify = func(plain, hash string) bool {
		hashes = append(hashes, hash)
		return auth.VerifyPassword(plain, hash)
	}

	_, err := f.accounts.Login(ctx, "nobody@example.com", "pw-erin")
	require.ErrorIs(t, err, apperror.ErrAuthFailed)
	require.Len(t, hashes, 1)
	assert.Equal(t, dummyHash(), hashes[0])

	_, err = f.accounts.Login(ctx, "erin@example.com", "wrong")
	require.ErrorIs(t, err, apperror.ErrAuthFailed)
	require.Len(t, hashes, 2)
	assert.NotEqual(t, dummyHash(), hashes[1])
}

func TestDummyHashUsesPasswordCost(t *testing.T) {
	cost, err := bcrypt.Cost([]byte(dummyHash()))
	require.NoError(t, err)
	assert.Equal(t, auth.PasswordCost, cost)
}

func TestRegisterRejectsPasswordOverByteLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 72 runes but 144 bytes.
	long := strings.Repeat("é", 72)
	_, err := f.accounts.Register(ctx, RegisterInput{Username: "frank", Email: "frank@example.com", Password: long})
	require.ErrorIs(t, err, auth.ErrPasswordTooLong)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = f.repo.FindUserByEmail(ctx, "frank@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.accounts.Register(ctx, RegisterInput{Username: "frank", Email: "frank@example.com", Password: strings.Repeat("é", 36)})
	assert.NoError(t, err)
}
