package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rbroggi/wasteroute/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_IssueAndVerify(t *testing.T) {
	j, err := NewJWT(JWTArgs{Secret: "s3cr3t", Issuer: "wasteroute", TTL: time.Hour})
	require.NoError(t, err)

	raw, err := j.Issue(model.User{ID: "u1", Role: model.RoleCollector})
	require.NoError(t, err)

	actor, err := j.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, &model.Actor{UserID: "u1", Role: model.RoleCollector}, actor)
}

func TestJWT_Verify(t *testing.T) {
	issuedAt := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	at := func(ts time.Time) func() time.Time { return func() time.Time { return ts } }

	issuer, err := NewJWT(JWTArgs{Secret: "s3cr3t", Issuer: "wasteroute", TTL: time.Hour}, WithNowFunc(at(issuedAt)))
	require.NoError(t, err)
	valid, err := issuer.Issue(model.User{ID: "u1", Role: model.RoleAdmin})
	require.NoError(t, err)

	noRole, err := issuer.Issue(model.User{ID: "u1"})
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "wasteroute", ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour))},
		Role:             model.RoleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier JWTArgs
		now      time.Time
		token    string
		wantErr  bool
	}{
		{name: "valid", verifier: JWTArgs{Secret: "s3cr3t", Issuer: "wasteroute", TTL: time.Hour}, now: issuedAt.Add(time.Minute), token: valid},
		{name: "expired", verifier: JWTArgs{Secret: "s3cr3t", Issuer: "wasteroute", TTL: time.Hour}, now: issuedAt.Add(2 * time.Hour), token: valid, wantErr: true},
		{name: "wrong secret", verifier: JWTArgs{Secret: "other", Issuer: "wasteroute", TTL: time.Hour}, now: issuedAt, token: valid, wantErr: true},
		{name: "wrong issuer", verifier: JWTArgs{Secret: "s3cr3t", Issuer: "someone", TTL: time.Hour}, now: issuedAt, token: valid, wantErr: true},
		{name: "missing role", verifier: JWTArgs{Secret: "s3cr3t", Issuer: "wasteroute", TTL: time.Hour}, now: issuedAt, token: noRole, wantErr: true},
		{name: "unsigned", verifier: JWTArgs{Secret: "s3cr3t", Issuer: "wasteroute", TTL: time.Hour}, now: issuedAt, token: noneAlg, wantErr: true},
		{name: "garbage", verifier: JWTArgs{Secret: "s3cr3t", Issuer: "wasteroute", TTL: time.Hour}, now: issuedAt, token: "not-a-token", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			verifier, err := NewJWT(test.verifier, WithNowFunc(at(test.now)))
			require.NoError(t, err)

			actor, err := verifier.Verify(test.token)
			if test.wantErr {
				assert.ErrorIs(t, err, model.ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.RoleAdmin, actor.Role)
		})
	}
}

func TestNewJWT_Invalid(t *testing.T) {
	_, err := NewJWT(JWTArgs{TTL: time.Hour})
	require.Error(t, err)

	_, err = NewJWT(JWTArgs{Secret: "s", TTL: 0})
	require.Error(t, err)
}
