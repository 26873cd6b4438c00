package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type identityClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Authenticator verifies identity tokens issued by the identity provider.
// Tokens are HS256 JWTs whose uid claim carries the user id.
type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewAuthenticator(secret, issuer, audience string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, audience: audience, ttl: ttl}
}

// IssueToken signs a token for userID. Used by the local dev-token endpoint
// and tests; production tokens come from the identity provider.
func (a *Authenticator) IssueToken(userID string, now time.Time) (string, error) {
	const op = "services.identity.IssueToken"

	if userID == "" {
		return "", invalidArg(op, "empty user id")
	}
	claims := identityClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    a.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{a.audience},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// Verify returns the user id carried by a valid token.
func (a *Authenticator) Verify(tokenStr string) (string, error) {
	const op = "services.identity.Verify"

	if tokenStr == "" {
		return "", fmt.Errorf("%s: %w: missing token", op, ErrUnauthenticated)
	}

	token, err := jwt.ParseWithClaims(tokenStr, &identityClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%s: %w: token expired", op, ErrUnauthenticated)
		}
		return "", fmt.Errorf("%s: %w: invalid token", op, ErrUnauthenticated)
	}

	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("%s: %w: invalid token", op, ErrUnauthenticated)
	}
	return claims.UserID, nil
}
