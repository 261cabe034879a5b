// Package auth adapts the external identity provider to the
// TokenVerifier port. The static implementation is enough for local
// deployments and tests; real token issuance happens elsewhere.
package auth

import (
	"context"
	"errors"

	"github.com/taskdeck/taskdeck/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// StaticVerifier resolves bearer tokens from a fixed map.
type StaticVerifier struct {
	tokens map[string]domain.UserID

	// insecure accepts any non-empty token as the user id itself.
	// Local mode only.
	insecure bool
}

func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	m := make(map[string]domain.UserID, len(tokens))
	for token, user := range tokens {
		m[token] = domain.UserID(user)
	}
	return &StaticVerifier{tokens: m}
}

// NewInsecureVerifier returns a verifier where the token IS the user
// id. Only wired when no tokens are configured in local mode.
func NewInsecureVerifier() *StaticVerifier {
	return &StaticVerifier{insecure: true}
}

func (v *StaticVerifier) VerifyToken(ctx context.Context, token string) (domain.UserID, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	if v.insecure {
		return domain.UserID(token), nil
	}
	if user, ok := v.tokens[token]; ok {
		return user, nil
	}
	return "", ErrInvalidToken
}
