package identity

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bookhub-dev/bookhub/internal/auth"
	"github.com/bookhub-dev/bookhub/internal/models"
)

func newTestService(t *testing.T, adminEmails ...string) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	auth.InitializeJWT("test-secret")

	return NewService(db, nil, zerolog.Nop(), adminEmails)
}

func TestSignUpAssignsRoles(t *testing.T) {
	svc := newTestService(t, "librarian@example.com")

	user, code, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)
	require.Equal(t, models.RoleVisitor, user.Role)
	require.Len(t, code, 6)
	require.False(t, user.Confirmed)

	admin, _, err := svc.SignUp("Lin", "Librarian@Example.com", "correcthorse")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, admin.Role)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)

	// Resubmitting must fail loudly, never silently succeed
	_, _, err = svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.Error(t, err)
	require.Equal(t, ReasonAlreadyExists, ReasonOf(err))
}

func TestSignUpWeakPassword(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.SignUp("Vera", "vera@example.com", "short")
	require.Error(t, err)
	require.Equal(t, ReasonWeakPassword, ReasonOf(err))
}

func TestAuthenticateLifecycle(t *testing.T) {
	svc := newTestService(t)

	_, code, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)

	// Unconfirmed account cannot sign in
	_, err = svc.Authenticate("vera@example.com", "correcthorse")
	require.Equal(t, ReasonUnconfirmed, ReasonOf(err))

	require.NoError(t, svc.ConfirmRegistration("vera@example.com", code))

	res, err := svc.Authenticate("vera@example.com", "correcthorse")
	require.NoError(t, err)
	require.NotEmpty(t, res.IDToken)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, "vera@example.com", res.User.Email)

	claims, err := auth.ValidateToken(res.IDToken)
	require.NoError(t, err)
	require.Equal(t, models.RoleVisitor, claims.Role)
	require.Equal(t, "Vera", claims.Name)
}

func TestAuthenticateFailures(t *testing.T) {
	svc := newTestService(t)

	_, code, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmRegistration("vera@example.com", code))

	tests := []struct {
		name     string
		email    string
		password string
		reason   Reason
	}{
		{name: "unknown email", email: "a@b.com", password: "bad", reason: ReasonNotFound},
		{name: "wrong password", email: "vera@example.com", password: "wrong-password", reason: ReasonBadCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(tt.email, tt.password)
			require.Error(t, err)
			require.Equal(t, tt.reason, ReasonOf(err))
		})
	}
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	svc := newTestService(t)

	user, code, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmRegistration("vera@example.com", code))
	require.NoError(t, svc.db.Model(user).Update("disabled", true).Error)

	_, err = svc.Authenticate("vera@example.com", "correcthorse")
	require.Equal(t, ReasonDisabled, ReasonOf(err))
}

func TestConfirmRegistrationBadCode(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)

	err = svc.ConfirmRegistration("vera@example.com", "000000")
	require.Equal(t, ReasonCodeInvalid, ReasonOf(err))
}

func TestConfirmRegistrationExpiredCode(t *testing.T) {
	svc := newTestService(t)

	_, code, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)

	// Age the code past its TTL
	require.NoError(t, svc.db.Model(&models.VerificationCode{}).
		Where("email = ?", "vera@example.com").
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	err = svc.ConfirmRegistration("vera@example.com", code)
	require.Equal(t, ReasonCodeExpired, ReasonOf(err))
}

func TestPasswordResetTwoPhase(t *testing.T) {
	svc := newTestService(t)

	_, code, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmRegistration("vera@example.com", code))

	// Phase 2 without phase 1 must fail
	err = svc.ConfirmPasswordReset("vera@example.com", "123456", "newpassword1")
	require.Equal(t, ReasonCodeInvalid, ReasonOf(err))

	resetCode, err := svc.RequestPasswordReset("vera@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmPasswordReset("vera@example.com", resetCode, "newpassword1"))

	// Old password dead, new one live
	_, err = svc.Authenticate("vera@example.com", "correcthorse")
	require.Equal(t, ReasonBadCredentials, ReasonOf(err))
	_, err = svc.Authenticate("vera@example.com", "newpassword1")
	require.NoError(t, err)

	// A consumed code cannot be replayed
	err = svc.ConfirmPasswordReset("vera@example.com", resetCode, "anotherpassword")
	require.Equal(t, ReasonCodeInvalid, ReasonOf(err))
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RequestPasswordReset("nobody@example.com")
	require.Equal(t, ReasonNotFound, ReasonOf(err))
}

func TestPurgeExpiredCodes(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.SignUp("Vera", "vera@example.com", "correcthorse")
	require.NoError(t, err)

	require.NoError(t, svc.db.Model(&models.VerificationCode{}).
		Where("email = ?", "vera@example.com").
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	purged, err := svc.PurgeExpiredCodes(time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)
}
