package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
)

// TokenTTL is the fixed validity window of every issued token.
const TokenTTL = time.Hour

var (
	// ErrMalformedToken covers unparseable tokens, signature mismatches and
	// unexpected signing methods.
	ErrMalformedToken = fmt.Errorf("%w: malformed token", apperror.ErrInvalidToken)

	// ErrTokenExpired is returned once the validity window has elapsed.
	ErrTokenExpired = fmt.Errorf("%w: token expired", apperror.ErrInvalidToken)
)

// Identity is the set of claims a verified token asserts about its bearer.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Token is a signed identity token together with its lifetime.
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims is the JWT payload.
type Claims struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens. The secret is fixed
// for the lifetime of the process; rotating it invalidates every token.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService builds a TokenService from the process signing secret.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	return &TokenService{secret: s.secret, now: now}
}

// Issue signs a token for id, valid for TokenTTL from now.
func (s *TokenService) Issue(id Identity) (Token, error) {
	// JWT NumericDate has whole-second resolution.
	iat := s.now().UTC().Truncate(time.Second)
	exp := iat.Add(TokenTTL)
	claims := &Claims{
		ID:       id.ID,
		Username: id.Username,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, IssuedAt: iat, ExpiresAt: exp}, nil
}

// Verify checks the signature and expiry of raw and returns the identity it
// carries. Failures are ErrMalformedToken or ErrTokenExpired.
func (s *TokenService) Verify(raw string) (Identity, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !tkn.Valid {
		return Identity{}, ErrMalformedToken
	}
	return Identity{ID: claims.ID, Username: claims.Username, Email: claims.Email}, nil
}
