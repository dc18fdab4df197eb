package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid session token")
	ErrWrongBoard    = errors.New("session token is for another board")
	ErrMissingSecret = errors.New("jwt secret not configured")
)

// ViewerClaims identify one viewer of one board
type ViewerClaims struct {
	BoardToken string `json:"board_token"`
	ViewerID   string `json:"viewer_id"`
	jwt.RegisteredClaims
}

// IssueViewerToken signs a session token that lets its holder drive a board
func IssueViewerToken(secret, boardToken string, ttl time.Duration) (string, ViewerClaims, error) {
	if secret == "" {
		return "", ViewerClaims{}, ErrMissingSecret
	}
	now := time.Now()
	claims := ViewerClaims{
		BoardToken: boardToken,
		ViewerID:   uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   boardToken,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", ViewerClaims{}, fmt.Errorf("sign viewer token: %w", err)
	}
	return signed, claims, nil
}

// ParseViewerToken validates a session token and returns its claims
func ParseViewerToken(secret, token string) (*ViewerClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	claims := &ViewerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.BoardToken == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AuthorizeBoard checks that a session token was issued for boardToken
func AuthorizeBoard(secret, token, boardToken string) (*ViewerClaims, error) {
	claims, err := ParseViewerToken(secret, token)
	if err != nil {
		return nil, err
	}
	if claims.BoardToken != boardToken {
		return nil, ErrWrongBoard
	}
	return claims, nil
}
