package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
)

var alice = Identity{ID: 7, Username: "alice", Email: "alice@example.com"}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService("")
	require.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc, err := NewTokenService("s3cret")
	require.NoError(t, err)

	tok, err := svc.Issue(alice)
	require.NoError(t, err)
	assert.Equal(t, TokenTTL, tok.ExpiresAt.Sub(tok.IssuedAt))

	got, err := svc.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestVerifyExpired(t *testing.T) {
	base, _ := NewTokenService("s3cret")
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tok, err := base.WithClock(fixedClock(issuedAt)).Issue(alice)
	require.NoError(t, err)

	_, err = base.WithClock(fixedClock(issuedAt.Add(TokenTTL - time.Second))).Verify(tok.Value)
	require.NoError(t, err)

	_, err = base.WithClock(fixedClock(issuedAt.Add(TokenTTL + time.Second))).Verify(tok.Value)
	require.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc, _ := NewTokenService("s3cret")
	tok, err := svc.Issue(alice)
	require.NoError(t, err)

	parts := strings.Split(tok.Value, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Verify(tampered)
	require.ErrorIs(t, err, ErrMalformedToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	a, _ := NewTokenService("secret-a")
	b, _ := NewTokenService("secret-b")

	tok, err := a.Issue(alice)
	require.NoError(t, err)

	_, err = b.Verify(tok.Value)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestVerifyRejectsGarbageAndOtherAlgorithms(t *testing.T) {
	svc, _ := NewTokenService("s3cret")

	for _, raw := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Verify(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, raw)
	}

	claims := &Claims{
		ID: alice.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(none)
	assert.ErrorIs(t, err, ErrMalformedToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = svc.Verify(hs512)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	svc, _ := NewTokenService("s3cret")
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{ID: 1}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestIssueTimesMatchEncodedClaims(t *testing.T) {
	base, _ := NewTokenService("s3cret")
	now := time.Date(2026, 5, 4, 10, 30, 15, 987654321, time.UTC)
	svc := base.WithClock(fixedClock(now))

	tok, err := svc.Issue(alice)
	require.NoError(t, err)
	assert.Zero(t, tok.ExpiresAt.Nanosecond())
	assert.Zero(t, tok.IssuedAt.Nanosecond())

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok.Value, claims)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Time.Equal(tok.ExpiresAt))
	assert.True(t, claims.IssuedAt.Time.Equal(tok.IssuedAt))

	// Valid up to the advertised expiry, rejected from it on.
	_, err = base.WithClock(fixedClock(tok.ExpiresAt.Add(-time.Nanosecond))).Verify(tok.Value)
	require.NoError(t, err)
	_, err = base.WithClock(fixedClock(tok.ExpiresAt)).Verify(tok.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
