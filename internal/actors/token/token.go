// Package token issues and verifies HS256 bearer tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rbroggi/wasteroute/internal/core/model"
)

// Claims are the JWT claims carried by bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// JWTArgs contains the mandatory arguments for the JWT service.
type JWTArgs struct {
	// Secret is the HMAC key.
	Secret string

	// Issuer is set as the iss claim and enforced on verification.
	Issuer string

	// TTL is the token lifetime.
	TTL time.Duration
}

// JWTOptArgs are the optional arguments for building a JWT.
type JWTOptArgs = func(*JWT)

// WithNowFunc can be used to override the clock. Useful for testing.
func WithNowFunc(nowFunc func() time.Time) JWTOptArgs {
	return func(j *JWT) {
		j.nowFunc = nowFunc
	}
}

// NewJWT builds a JWT implementing ports.TokenIssuer and ports.TokenVerifier.
func NewJWT(args JWTArgs, optArgs ...JWTOptArgs) (*JWT, error) {
	if args.Secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if args.TTL <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive, got %s", args.TTL)
	}
	j := &JWT{secret: []byte(args.Secret), issuer: args.Issuer, ttl: args.TTL, nowFunc: time.Now}
	for _, opt := range optArgs {
		opt(j)
	}
	return j, nil
}

// JWT signs and verifies tokens with a shared secret.
type JWT struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	nowFunc func() time.Time
}

// Issue implements ports.TokenIssuer.
func (j *JWT) Issue(user model.User) (string, error) {
	now := j.nowFunc()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			ID:        uuid.NewString(),
		},
		Role: user.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify implements ports.TokenVerifier.
func (j *JWT) Verify(raw string) (*model.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnauthenticated, err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: incomplete claims", model.ErrUnauthenticated)
	}
	return &model.Actor{UserID: claims.Subject, Role: claims.Role}, nil
}
