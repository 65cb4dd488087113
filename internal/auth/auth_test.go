package auth

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository/memory"
)

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *TokenIssuer, *memory.SessionRepo) {
	t.Helper()
	users := memory.NewUserRepository()
	creds := NewCredentialStore(users, bcrypt.MinCost)
	hash, err := creds.HashPassword("s3cret")
	require.NoError(t, err)
	_, err = users.Create(context.Background(), &models.Identity{
		Username:     "mrs.lee",
		Role:         models.RoleTeacher,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		LastLoginAt:  time.Now(),
	})
	require.NoError(t, err)

	tokens := NewTokenIssuer("test-secret", "weatherapi", time.Hour)
	sessions := memory.NewSessionRepository()
	return NewAuthenticator(creds, tokens, sessions), tokens, sessions
}

func failureOf(t *testing.T, err error) *Failure {
	t.Helper()
	var f *Failure
	require.ErrorAs(t, err, &f)
	return f
}

func TestBasicAuthentication(t *testing.T) {
	a, _, _ := newTestAuthenticator(t)
	ctx := context.Background()

	identity, err := a.Authenticate(ctx, SchemeBasic, basicHeader("mrs.lee", "s3cret"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, identity.Role)

	f := failureOf(t, mustFail(a.Authenticate(ctx, SchemeBasic, "")))
	assert.Equal(t, FailureMissing, f.Kind)
	assert.Equal(t, "Authentication required", f.Message)

	wrongPassword := failureOf(t, mustFail(a.Authenticate(ctx, SchemeBasic, basicHeader("mrs.lee", "nope"))))
	unknownUser := failureOf(t, mustFail(a.Authenticate(ctx, SchemeBasic, basicHeader("nobody", "s3cret"))))
	assert.Equal(t, wrongPassword.Kind, unknownUser.Kind)
	assert.Equal(t, wrongPassword.Message, unknownUser.Message)

	noSeparator := "Basic " + base64.StdEncoding.EncodeToString([]byte("mrs.lee"))
	assert.Equal(t, FailureInvalidCredentials, failureOf(t, mustFail(a.Authenticate(ctx, SchemeBasic, noSeparator))).Kind)
	assert.Equal(t, FailureInvalidCredentials, failureOf(t, mustFail(a.Authenticate(ctx, SchemeBasic, "Basic !!!"))).Kind)
}

func TestBearerAuthentication(t *testing.T) {
	a, tokens, sessions := newTestAuthenticator(t)
	ctx := context.Background()

	stored, err := a.credentials.FindByUsername(ctx, "mrs.lee")
	require.NoError(t, err)
	token, session, err := tokens.Issue(stored)
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	identity, err := a.Authenticate(ctx, SchemeBearer, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "mrs.lee", identity.Username)
	assert.Equal(t, stored.ID, identity.ID)

	identity, err = a.Authenticate(ctx, SchemeBearer, token)
	require.NoError(t, err, "raw tokens are accepted")
	assert.Equal(t, models.RoleTeacher, identity.Role)

	assert.Equal(t, "Token missing", failureOf(t, mustFail(a.Authenticate(ctx, SchemeBearer, ""))).Message)
	assert.Equal(t, "Invalid token", failureOf(t, mustFail(a.Authenticate(ctx, SchemeBearer, "Bearer garbage"))).Message)

	require.NoError(t, sessions.Revoke(ctx, session.ID))
	assert.Equal(t, FailureInvalidToken, failureOf(t, mustFail(a.Authenticate(ctx, SchemeBearer, token))).Kind)
}

func TestBearerUsesStoredIdentity(t *testing.T) {
	a, tokens, sessions := newTestAuthenticator(t)
	ctx := context.Background()

	stored, err := a.credentials.FindByUsername(ctx, "mrs.lee")
	require.NoError(t, err)
	token, session, err := tokens.Issue(stored)
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, session))

	everything := models.TimeRange{Start: time.Now().Add(-time.Hour), End: time.Now().Add(time.Hour)}
	n, err := a.credentials.users.UpdateRoleCreatedBetween(ctx, everything, models.RoleStudent)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	identity, err := a.Authenticate(ctx, SchemeBearer, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, identity.Role, "a demotion applies before the token expires")

	require.NoError(t, a.credentials.users.Delete(ctx, stored.ID))
	f := failureOf(t, mustFail(a.Authenticate(ctx, SchemeBearer, "Bearer "+token)))
	assert.Equal(t, FailureInvalidToken, f.Kind)
}

func TestTokenExpiry(t *testing.T) {
	tokens := NewTokenIssuer("test-secret", "weatherapi", time.Minute)
	issuedAt := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return issuedAt }
	token, _, err := tokens.Issue(&models.Identity{Username: "old", Role: models.RoleStudent})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenSignedWithOtherSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("one", "weatherapi", time.Hour).Issue(&models.Identity{Username: "x", Role: models.RoleSensor})
	require.NoError(t, err)
	_, err = NewTokenIssuer("two", "weatherapi", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("Bearer")
	require.NoError(t, err)
	assert.Equal(t, SchemeBearer, s)
	_, err = ParseScheme("digest")
	assert.Error(t, err)
}

func mustFail(_ *models.Identity, err error) error {
	return err
}
