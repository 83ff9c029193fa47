package ports

import "github.com/rbroggi/wasteroute/internal/core/model"

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user model.User) (string, error)
}

// TokenVerifier turns a bearer token back into the acting user.
type TokenVerifier interface {
	// Verify returns model.ErrUnauthenticated for invalid or expired tokens.
	Verify(token string) (*model.Actor, error)
}
