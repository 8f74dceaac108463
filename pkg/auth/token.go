// Package auth verifies bearer tokens against a Users collection. Tokens are
// HS256-signed JWTs whose payload carries the user id; the user record
// stores its current token in the "token" column.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cast"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// TokenColumn is the Users column holding a user's current token.
const TokenColumn = "token"

// ErrUnauthenticated is wrapped by every verification failure.
var ErrUnauthenticated = errors.New("unauthenticated")

// now is replaced in tests.
var now = time.Now

var signingMethod = jwt.SigningMethodHS256

// IssueAccessToken signs claims with secret. A positive ttl sets the exp
// claim; otherwise the token does not expire.
func IssueAccessToken(claims map[string]any, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: token secret is empty", types.ErrInvalidArgument)
	}
	payload := make(jwt.MapClaims, len(claims)+1)
	for k, v := range claims {
		payload[k] = v
	}
	if ttl > 0 {
		payload["exp"] = now().Add(ttl).Unix()
	}
	token, err := jwt.NewWithClaims(signingMethod, payload).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken returns the user, loaded at depth 1, that owns token.
// It fails with ErrUnauthenticated when no user holds the token, the
// signature does not match secret, the token has expired, or the token was
// issued for another user.
func ValidateAccessToken(token, secret string, users types.Collection) (types.Record, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no token provided", ErrUnauthenticated)
	}

	holders, err := users.Where(func(r types.Record) bool { return r[TokenColumn] == token })
	if err != nil {
		return nil, err
	}
	if len(holders) == 0 {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	user, err := users.FindByID(holders[0].ID(), 1)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", ErrUnauthenticated)
	}

	claims, err := ParseToken(token, secret)
	if err != nil {
		return nil, err
	}
	if cast.ToString(claims["id"]) != user.ID() {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	return user, nil
}

// ParseToken checks the signature and expiry of token and returns its
// claims without exp. Only HS256 tokens are accepted.
func ParseToken(token, secret string) (map[string]any, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: token secret is empty", types.ErrInvalidArgument)
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now() }),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: the token has expired", ErrUnauthenticated)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, fmt.Errorf("%w: invalid signature", ErrUnauthenticated)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	delete(claims, "exp")
	return map[string]any(claims), nil
}
