package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that does not verify.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user id alongside the registered claims.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTResolver signs and validates HS256 tokens with a shared secret.
type JWTResolver struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTResolver creates a resolver. ttl applies to issued tokens.
func NewJWTResolver(secret string, ttl time.Duration) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for userID.
func (r *JWTResolver) Issue(userID int64) (string, error) {
	if len(r.secret) == 0 {
		return "", ErrInvalidToken
	}
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(r.secret)
}

// ValidateToken verifies the token and returns the user id it was issued for.
func (r *JWTResolver) ValidateToken(_ context.Context, tokenString string) (int64, error) {
	if len(r.secret) == 0 {
		return 0, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
