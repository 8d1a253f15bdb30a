package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", OrganizationID: "o1", RoleName: RoleManager, Name: "Ada"}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, UserContext{UserID: "u1", OrganizationID: "o1", RoleName: RoleManager, Name: "Ada"}, claims.User())
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.Error(t, CheckPassword(hash, "battery staple"))
}

type fakeUserStore struct {
	user      AuthUser
	err       error
	lastLogin string
}

func (f *fakeUserStore) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	return f.user, f.err
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, userID string) error {
	f.lastLogin = userID
	return nil
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	store := &fakeUserStore{user: AuthUser{ID: "u1", OrganizationID: "o1", RoleName: RoleHR, Name: "Grace", Password: hash}}
	svc := NewService(store, "secret")

	result, err := svc.Login(context.Background(), "grace@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", store.lastLogin)
	assert.Equal(t, RoleHR, result.User.RoleName)

	claims, err := ParseToken("secret", result.Token)
	require.NoError(t, err)
	assert.Equal(t, "o1", claims.OrganizationID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	cases := []struct {
		name     string
		store    *fakeUserStore
		email    string
		password string
	}{
		{name: "wrong password", store: &fakeUserStore{user: AuthUser{ID: "u1", Password: hash}}, email: "a@b.c", password: "nope"},
		{name: "unknown user", store: &fakeUserStore{err: errors.New("no rows")}, email: "a@b.c", password: "pw"},
		{name: "empty email", store: &fakeUserStore{}, email: " ", password: "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewService(tc.store, "secret").Login(context.Background(), tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Empty(t, tc.store.lastLogin)
		})
	}
}
