package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sessionlens/server/domain/entities"
)

// Claims represents the claims in our JWT token
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against the signing secret and an
// allow-listed identity domain.
type Verifier struct {
	secret        []byte
	allowedDomain string
}

// NewVerifier creates a verifier. allowedDomain is the email domain users
// must belong to; empty allows any domain.
func NewVerifier(secret []byte, allowedDomain string) *Verifier {
	return &Verifier{
		secret:        secret,
		allowedDomain: strings.ToLower(strings.TrimPrefix(allowedDomain, "@")),
	}
}

// Verify validates a JWT token and returns the authenticated principal.
// All failure modes collapse to ErrUnauthenticated.
func (v *Verifier) Verify(tokenString string) (entities.Principal, error) {
	if tokenString == "" {
		return entities.Principal{}, fmt.Errorf("%w: missing token", entities.ErrUnauthenticated)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return entities.Principal{}, fmt.Errorf("%w: invalid or expired token", entities.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return entities.Principal{}, fmt.Errorf("%w: invalid token claims", entities.ErrUnauthenticated)
	}
	if claims.UserID == "" {
		return entities.Principal{}, fmt.Errorf("%w: token has no user id", entities.ErrUnauthenticated)
	}
	if v.allowedDomain != "" && !strings.HasSuffix(strings.ToLower(claims.Email), "@"+v.allowedDomain) {
		return entities.Principal{}, fmt.Errorf("%w: email domain not allowed", entities.ErrUnauthenticated)
	}

	principal := entities.Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// GenerateToken generates a JWT token for a user. Used by the auth
// collaborator and by tests.
func GenerateToken(secret []byte, userID, email string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
