package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.accounts.Signup(ctx, " New@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", acc.Email)
	assert.Equal(t, models.RoleUser, acc.Role)
	assert.NotEmpty(t, acc.ID)

	_, err = f.accounts.Signup(ctx, "new@example.com", "secret1")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = f.accounts.Signup(ctx, "not-an-email", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidEmail)

	_, err = f.accounts.Signup(ctx, "short@example.com", "12345")
	assert.ErrorIs(t, err, common.ErrPasswordTooShort)

	f.login(t, "new@example.com", "secret1")
}

func TestPasswordOverBcryptLimitIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	long := strings.Repeat("a", common.MaxPasswordBytes+1)
	limit := strings.Repeat("b", common.MaxPasswordBytes)

	_, err := f.accounts.Signup(ctx, "long@example.com", long)
	assert.ErrorIs(t, err, common.ErrPasswordTooLong)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NotErrorIs(t, err, common.ErrorInternal)

	_, err = f.accounts.Signup(ctx, "limit@example.com", limit)
	require.NoError(t, err)
	f.login(t, "limit@example.com", limit)

	_, err = f.accounts.EnsureAdmin(ctx, "root@example.com", long)
	assert.ErrorIs(t, err, common.ErrPasswordTooLong)

	adminAcc, err := f.accounts.EnsureAdmin(ctx, "root@example.com", "rootpw")
	require.NoError(t, err)
	_, err = f.accounts.EnsureAdmin(ctx, "root@example.com", long)
	assert.ErrorIs(t, err, common.ErrPasswordTooLong, "promotion path")

	bob, err := f.accounts.Signup(ctx, "bob@example.com", "bobpw1")
	require.NoError(t, err)
	assert.ErrorIs(t, f.sessions.AdminSetPassword(ctx, principalOf(adminAcc), bob.ID, long, meta), common.ErrPasswordTooLong)
	assert.ErrorIs(t, f.sessions.ChangeOwnPassword(ctx, principalOf(bob), "bobpw1", long), common.ErrPasswordTooLong)

	require.NoError(t, f.accounts.ForgotPassword(ctx, "bob@example.com"))
	token := f.notifier.token(t, "bob@example.com")
	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, token, long), common.ErrPasswordTooLong)

	f.login(t, "bob@example.com", "bobpw1")
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.accounts.EnsureAdmin(ctx, "root@example.com", "rootpw")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)

	user := f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	tok := f.login(t, "bob@example.com", "bobpw1")

	promoted, err := f.accounts.EnsureAdmin(ctx, "bob@example.com", "adminpw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, promoted.ID)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = f.sessions.Validate(ctx, tok)
	assert.ErrorIs(t, err, common.ErrSessionInvalid, "new password ends old sessions")

	res, err := f.sessions.Login(ctx, "bob@example.com", "adminpw", meta)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Account.Role)

	_, err = f.accounts.EnsureAdmin(ctx, "bob@example.com", "short")
	assert.ErrorIs(t, err, common.ErrPasswordTooShort)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	tok := f.login(t, "bob@example.com", "bobpw1")
	ctx := context.Background()

	require.NoError(t, f.accounts.ForgotPassword(ctx, "BOB@example.com"))
	reset := f.notifier.token(t, "bob@example.com")
	assert.Len(t, reset, resetTokenBytes*2)

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, reset, "123"), common.ErrPasswordTooShort)
	require.NoError(t, f.accounts.ResetPassword(ctx, reset, "brandnew"))

	_, err := f.sessions.Validate(ctx, tok)
	assert.ErrorIs(t, err, common.ErrSessionInvalid)
	f.login(t, "bob@example.com", "brandnew")

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, reset, "again123"), common.ErrResetTokenInvalid, "tokens are single use")
}

func TestResetPassword_ExpiredAndUnknown(t *testing.T) {
	f := newFixture(t)
	f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	ctx := context.Background()

	require.NoError(t, f.accounts.ForgotPassword(ctx, "bob@example.com"))
	reset := f.notifier.token(t, "bob@example.com")

	f.advance(f.cfg.ResetTokenTTL + time.Second)
	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, reset, "brandnew"), common.ErrResetTokenInvalid)
	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, "deadbeef", "brandnew"), common.ErrResetTokenInvalid)
}

func TestForgotPassword_NewTokenReplacesOld(t *testing.T) {
	f := newFixture(t)
	f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	ctx := context.Background()

	require.NoError(t, f.accounts.ForgotPassword(ctx, "bob@example.com"))
	first := f.notifier.token(t, "bob@example.com")
	require.NoError(t, f.accounts.ForgotPassword(ctx, "bob@example.com"))
	second := f.notifier.token(t, "bob@example.com")

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, first, "brandnew"), common.ErrResetTokenInvalid)
	assert.NoError(t, f.accounts.ResetPassword(ctx, second, "brandnew"))
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.accounts.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.notifier.links)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("a@b.c"))
	assert.False(t, validEmail("@b.c"))
	assert.False(t, validEmail("a@"))
	assert.False(t, validEmail("a b@c.d"))
	assert.False(t, validEmail(""))
}
