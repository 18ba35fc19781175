package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpired       = errors.New("session token expired")
	ErrMissingClaims = errors.New("session token has no user")
	ErrInvalidToken  = errors.New("invalid session token")
)

// Claims is the payload carried by a colab access token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Session is the viewer identity passed explicitly to the paginator and to
// every mutation. The zero value is the unauthenticated session.
type Session struct {
	UserID    int64
	Username  string
	Token     string
	ExpiresAt time.Time

	authenticated bool
}

// Unauthenticated returns the anonymous session.
func Unauthenticated() Session {
	return Session{}
}

// Authenticated builds a logged-in session.
func Authenticated(userID int64, username, token string, expiresAt time.Time) Session {
	return Session{
		UserID:        userID,
		Username:      username,
		Token:         token,
		ExpiresAt:     expiresAt,
		authenticated: true,
	}
}

func (s Session) IsAuthenticated() bool {
	return s.authenticated
}

// UserIDPtr returns the viewer id, or nil for the anonymous session.
func (s Session) UserIDPtr() *int64 {
	if !s.authenticated {
		return nil
	}
	id := s.UserID
	return &id
}

func (s Session) String() string {
	if !s.authenticated {
		return "anonymous"
	}
	return fmt.Sprintf("%s(%d)", s.Username, s.UserID)
}

// FromToken decodes a bearer token without checking its signature, the way a
// browser reads its own cookie. The backend stays the authority on validity.
// An empty token yields the unauthenticated session and no error.
func FromToken(token string, now time.Time) (Session, error) {
	if token == "" {
		return Unauthenticated(), nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Unauthenticated(), fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == 0 || claims.Username == "" {
		return Unauthenticated(), ErrMissingClaims
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
		if !now.Before(expiresAt) {
			return Unauthenticated(), ErrExpired
		}
	}

	return Authenticated(claims.UserID, claims.Username, token, expiresAt), nil
}

// Issue signs a token for the given user with HS256.
func Issue(secret string, userID int64, username string, ttl time.Duration, now time.Time) (string, error) {
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token issued with Issue.
func Verify(secret, token string) (Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Unauthenticated(), ErrExpired
		}
		return Unauthenticated(), fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Unauthenticated(), ErrInvalidToken
	}
	if claims.UserID == 0 || claims.Username == "" {
		return Unauthenticated(), ErrMissingClaims
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return Authenticated(claims.UserID, claims.Username, token, expiresAt), nil
}
