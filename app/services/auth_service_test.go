package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/auth"
)

func newAuth(t *testing.T) (*AuthService, *fakeNotifier, *auth.Issuer) {
	t.Helper()
	db := newTestDB(t)
	notify := &fakeNotifier{}
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return NewAuthService(db, issuer, notify), notify, issuer
}

func register(t *testing.T, svc *AuthService) {
	t.Helper()
	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Sara", Email: "  Sara@Example.com ", Phone: "0501234567", Password: "s3cret-pass",
	})
	require.NoError(t, err)
}

func TestRegisterVerifyLogin(t *testing.T) {
	svc, notify, issuer := newAuth(t)
	ctx := context.Background()
	register(t, svc)

	mail := notify.last(t, "verify")
	assert.Equal(t, "sara@example.com", mail.to)
	assert.Len(t, mail.token, 64)

	_, _, err := svc.Login(ctx, "sara@example.com", "s3cret-pass")
	assertAppErr(t, err, http.StatusForbidden, MsgEmailNotVerified)

	require.NoError(t, svc.VerifyEmail(ctx, mail.token))

	err = svc.VerifyEmail(ctx, mail.token)
	assertAppErr(t, err, http.StatusBadRequest, MsgInvalidVerifyToken)

	token, u, err := svc.Login(ctx, " SARA@example.COM", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.Nil(t, u.EmailToken)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	register(t, svc)

	_, _, wrongPassword := svc.Login(ctx, "sara@example.com", "nope")
	_, _, unknownUser := svc.Login(ctx, "ghost@example.com", "nope")

	assertAppErr(t, wrongPassword, http.StatusUnauthorized, MsgInvalidCredentials)
	assertAppErr(t, unknownUser, http.StatusUnauthorized, MsgInvalidCredentials)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	register(t, svc)

	_, err := svc.Register(ctx, RegisterInput{Name: "X", Email: "SARA@example.com", Phone: "0509999999", Password: "password1"})
	assertAppErr(t, err, http.StatusBadRequest, "Email already registered")

	_, err = svc.Register(ctx, RegisterInput{Name: "X", Email: "other@example.com", Phone: "0501234567", Password: "password1"})
	assertAppErr(t, err, http.StatusBadRequest, "Phone number already registered")
}

func TestVerificationTokenExpires(t *testing.T) {
	svc, notify, _ := newAuth(t)
	register(t, svc)
	token := notify.last(t, "verify").token

	svc.now = func() time.Time { return repositories.Now().Add(VerificationTokenTTL + time.Minute) }
	err := svc.VerifyEmail(context.Background(), token)
	assertAppErr(t, err, http.StatusBadRequest, MsgInvalidVerifyToken)

	err = svc.VerifyEmail(context.Background(), "not-a-token")
	assertAppErr(t, err, http.StatusBadRequest, MsgInvalidVerifyToken)
}

func TestResendVerification(t *testing.T) {
	svc, notify, _ := newAuth(t)
	ctx := context.Background()
	register(t, svc)
	first := notify.last(t, "verify").token

	require.NoError(t, svc.ResendVerification(ctx, "ghost@example.com"))
	require.NoError(t, svc.ResendVerification(ctx, "sara@example.com"))
	second := notify.last(t, "verify").token
	assert.NotEqual(t, first, second)

	assertAppErr(t, svc.VerifyEmail(ctx, first), http.StatusBadRequest, MsgInvalidVerifyToken)
	require.NoError(t, svc.VerifyEmail(ctx, second))

	before := len(notify.sent())
	require.NoError(t, svc.ResendVerification(ctx, "sara@example.com"))
	assert.Len(t, notify.sent(), before, "verified accounts get no new token")
}

func TestForgotPasswordUnknownEmailCreatesNothing(t *testing.T) {
	svc, notify, _ := newAuth(t)
	register(t, svc)
	before := len(notify.sent())

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Len(t, notify.sent(), before)

	var n int64
	require.NoError(t, svc.db.Raw("SELECT COUNT(*) FROM users WHERE password_reset_token IS NOT NULL").Scan(&n).Error)
	assert.Zero(t, n)
}

func TestPasswordResetIsSingleUse(t *testing.T) {
	svc, notify, _ := newAuth(t)
	ctx := context.Background()
	register(t, svc)
	require.NoError(t, svc.VerifyEmail(ctx, notify.last(t, "verify").token))

	require.NoError(t, svc.ForgotPassword(ctx, "SARA@example.com"))
	token := notify.last(t, "reset").token

	assertAppErr(t, svc.ResetPassword(ctx, token, ""), http.StatusBadRequest, "Validation failed")
	require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-pass"))
	assertAppErr(t, svc.ResetPassword(ctx, token, "another-pass"), http.StatusBadRequest, MsgInvalidResetToken)

	_, _, err := svc.Login(ctx, "sara@example.com", "s3cret-pass")
	assertAppErr(t, err, http.StatusUnauthorized, MsgInvalidCredentials)
	_, _, err = svc.Login(ctx, "sara@example.com", "brand-new-pass")
	require.NoError(t, err)
}

func TestResetTokenExpires(t *testing.T) {
	svc, notify, _ := newAuth(t)
	ctx := context.Background()
	register(t, svc)
	require.NoError(t, svc.ForgotPassword(ctx, "sara@example.com"))
	token := notify.last(t, "reset").token

	svc.now = func() time.Time { return repositories.Now().Add(ResetTokenTTL + time.Minute) }
	assertAppErr(t, svc.ResetPassword(ctx, token, "brand-new-pass"), http.StatusBadRequest, MsgInvalidResetToken)
}

func TestProfileAndPasswordChange(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	register(t, svc)
	_, err := svc.Register(ctx, RegisterInput{Name: "Omar", Email: "omar@example.com", Phone: "0507777777", Password: "password1"})
	require.NoError(t, err)

	sara, err := svc.users.FindByEmail(ctx, "sara@example.com")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, sara.ID, "Sara A.", "0507777777")
	assertAppErr(t, err, http.StatusBadRequest, "Phone number already registered")

	u, err := svc.UpdateProfile(ctx, sara.ID, "Sara A.", "0501111111")
	require.NoError(t, err)
	assert.Equal(t, "Sara A.", u.Name)
	assert.Equal(t, "0501111111", u.Phone)

	assertAppErr(t, svc.ChangePassword(ctx, sara.ID, "wrong", "next-pass-1"), http.StatusBadRequest, "Current password is incorrect")
	require.NoError(t, svc.ChangePassword(ctx, sara.ID, "s3cret-pass", "next-pass-1"))

	u, err = svc.Me(ctx, sara.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(u.HashedPassword, "next-pass-1"))
}
