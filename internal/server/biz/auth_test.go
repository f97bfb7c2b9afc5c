package biz

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatohq/mercato/internal/authz"
)

func newTestAuthService(ttl time.Duration) *AuthService {
	return NewAuthService(AuthServiceParams{
		Config: AuthConfig{SecretKey: "test-secret", TokenTTL: ttl},
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	token, err := svc.IssueToken(authz.Identity{SubjectID: "42", Role: authz.RoleEditor})
	require.NoError(t, err)

	ident, err := svc.ResolveIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "42", ident.SubjectID)
	assert.Equal(t, authz.RoleEditor, ident.Role)
}

func TestResolveIdentityRejectsExpired(t *testing.T) {
	svc := newTestAuthService(-time.Minute)

	token, err := svc.IssueToken(authz.Identity{SubjectID: "42", Role: authz.RoleUser})
	require.NoError(t, err)

	_, err = svc.ResolveIdentity(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveIdentityRejectsForgedSignature(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	token, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ResolveIdentity(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveIdentityRejectsUnsignedAlgorithm(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "42",
		"role": "admin",
	})
	token, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ResolveIdentity(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveIdentityRejectsUnknownRole(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	crafted := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": "superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	token, err := crafted.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.ResolveIdentity(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, authz.ErrUnknownRole)
}

func TestResolveIdentityRejectsMissingClaims(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	for name, claims := range map[string]jwt.MapClaims{
		"no subject": {"role": "user", "exp": time.Now().Add(time.Hour).Unix()},
		"no role":    {"sub": "42", "exp": time.Now().Add(time.Hour).Unix()},
	} {
		t.Run(name, func(t *testing.T) {
			crafted := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
			token, err := crafted.SignedString([]byte("test-secret"))
			require.NoError(t, err)

			_, err = svc.ResolveIdentity(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestResolveIdentityRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(time.Hour)

	_, err := svc.ResolveIdentity("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	require.NoError(t, VerifyPassword(hash, "correct horse battery staple"))
	require.Error(t, VerifyPassword(hash, "wrong password"))
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	assert.Error(t, VerifyPassword("not-a-bcrypt-hash", "anything"))
}
