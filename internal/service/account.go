package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
	"github.com/emilythestrangee/postboard/backend/internal/auth"
	"github.com/emilythestrangee/postboard/backend/internal/models"
	"github.com/emilythestrangee/postboard/backend/internal/repository"
)

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(id auth.Identity) (auth.Token, error)
}

// dummyHash is compared against when the email is unknown so both login
// failure paths pay for one bcrypt compare.
var dummyHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword("postboard-unknown-account")
	if err != nil {
		panic(err)
	}
	return h
})

// AccountService handles registration and login. It never involves the
// authorization guard.
type AccountService struct {
	users  repository.Users
	tokens TokenIssuer
	logger *logrus.Logger
	verify func(plain, hash string) bool
}

func NewAccountService(users repository.Users, tokens TokenIssuer, logger *logrus.Logger) *AccountService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AccountService{users: users, tokens: tokens, logger: logger, verify: auth.VerifyPassword}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register stores a new user with a hashed password. A taken email yields
// apperror.ErrDuplicateEmail.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, auth.ErrPasswordTooLong
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperror.ErrDuplicateEmail) {
			s.logger.WithField("email", repository.NormalizeEmail(in.Email)).Info("registration rejected: email taken")
		}
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID}).Info("user registered")
	return u, nil
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords both return apperror.ErrAuthFailed; only the log tells them apart.
func (s *AccountService) Login(ctx context.Context, email, password string) (auth.Token, error) {
	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.verify(password, dummyHash())
			s.logger.WithField("reason", "unknown_email").Info("login failed")
			return auth.Token{}, apperror.ErrAuthFailed
		}
		return auth.Token{}, err
	}
	if !s.verify(password, u.PasswordHash) {
		s.logger.WithFields(logrus.Fields{"reason": "wrong_password", "user_id": u.ID}).Info("login failed")
		return auth.Token{}, apperror.ErrAuthFailed
	}

	tok, err := s.tokens.Issue(auth.Identity{ID: u.ID, Username: u.Username, Email: u.Email})
	if err != nil {
		return auth.Token{}, fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}
