package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"devqa/internal/auth"
	"devqa/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(t *testing.T, db *gorm.DB) (*UserService, *auth.Issuer, auth.Revoker) {
	t.Helper()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	revoker, err := auth.NewMemoryRevoker(64)
	require.NoError(t, err)
	return NewUserService(db, issuer, revoker), issuer, revoker
}

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, issuer, _ := newUserService(t, db)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: " Alice@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEqual(t, "secret1", res.User.Password)

	claims, err := issuer.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	login, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	for _, tc := range []struct{ email, password string }{
		{"alice@example.com", "wrong-password"},
		{"nobody@example.com", "secret1"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "invalid email or password", verr.Message)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _, _ := newUserService(t, db)
	ctx := context.Background()
	testutil.CreateTestUser(t, db, "alice")

	tests := []struct {
		name    string
		in      RegisterInput
		details []string
	}{
		{"bad email", RegisterInput{Username: "bob", Email: "bob", Password: "secret1"}, []string{"email is not valid"}},
		{"short password", RegisterInput{Username: "bob", Email: "bob@example.com", Password: "123"}, []string{"password must be at least 6 characters"}},
		{"long password", RegisterInput{Username: "bob", Email: "bob@example.com", Password: strings.Repeat("p", 80)}, []string{"password must be at most 72 bytes"}},
		{"short username", RegisterInput{Username: "bo", Email: "bob@example.com", Password: "secret1"}, []string{"username must be 3 to 30 characters"}},
		{"taken email", RegisterInput{Username: "bob", Email: "alice@example.com", Password: "secret1"}, []string{"email already used"}},
		{"taken both", RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"}, []string{"email already used", "username already used"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.details, verr.Details)
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, issuer, revoker := newUserService(t, db)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := issuer.ValidateToken(res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	revoked, err := revoker.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.ErrorIs(t, svc.Logout(ctx, nil), ErrUnauthorized)
}

func TestProfiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _, _ := newUserService(t, db)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	q := testutil.CreateTestQuestion(t, db, alice.ID, "How do I reverse a slice in Go?")
	a := testutil.CreateTestAnswer(t, db, alice.ID, q.ID)
	ctx := context.Background()

	_, err := NewVoteService(db).Cast(ctx, bob.ID, AnswerTarget(a.ID), 1)
	require.NoError(t, err)

	me, err := svc.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, int64(1), me.Reputation)
	require.Len(t, me.Questions, 1)
	require.Len(t, me.Answers, 1)
	assert.Equal(t, 1, me.Answers[0].TotalVotes)
	assert.Equal(t, 1, me.Questions[0].AnswerCount)

	public, err := svc.PublicProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, public.Email)
	assert.Equal(t, int64(1), public.Reputation)

	// the profile owner is the author, so nested posts carry no author object
	assert.Nil(t, public.Questions[0].Author)
	body, err := json.Marshal(public)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"author":`)

	_, err = svc.PublicProfile(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Empty(t, users[0].Email)
	assert.Empty(t, users[0].Password)
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _, _ := newUserService(t, db)
	alice := testutil.CreateTestUser(t, db, "alice")
	testutil.CreateTestUser(t, db, "bob")
	ctx := context.Background()

	str := func(s string) *string { return &s }

	_, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Username: str("bob")})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"username already used"}, verr.Details)

	_, err = svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{NewPassword: "newsecret", CurrentPassword: "wrong"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"current password is incorrect"}, verr.Details)

	_, err = svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{NewPassword: strings.Repeat("p", 73), CurrentPassword: testutil.TestPassword})
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, []string{"password must be at most 72 bytes"}, verr.Details)

	user, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{
		Username:        str("alice2"),
		Bio:             str("Gopher."),
		CurrentPassword: testutil.TestPassword,
		NewPassword:     "newsecret",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", user.Username)
	require.NotNil(t, user.Bio)
	assert.Equal(t, "Gopher.", *user.Bio)

	_, err = svc.Login(ctx, "alice@example.com", "newsecret")
	require.NoError(t, err)

	// keeping your own username is not a conflict
	_, err = svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Username: str("alice2")})
	require.NoError(t, err)

	user, err = svc.SetAvatar(ctx, alice.ID, "/uploads/avatars/a.png")
	require.NoError(t, err)
	require.NotNil(t, user.Avatar)
	assert.Equal(t, "/uploads/avatars/a.png", *user.Avatar)
}
