// Package identity implements the account lifecycle behind the auth
// endpoints: sign-up with email confirmation, sign-in, and the two-phase
// password reset. Every expected failure carries a typed reason so the
// client can present it without string matching.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bookhub-dev/bookhub/internal/auth"
	"github.com/bookhub-dev/bookhub/internal/events"
	"github.com/bookhub-dev/bookhub/internal/models"
	"github.com/bookhub-dev/bookhub/internal/tasks"
)

// Reason is the machine-readable cause of an expected identity failure
type Reason string

const (
	ReasonAlreadyExists  Reason = "already_exists"
	ReasonWeakPassword   Reason = "weak_password"
	ReasonCodeInvalid    Reason = "code_invalid"
	ReasonCodeExpired    Reason = "code_expired"
	ReasonBadCredentials Reason = "bad_credentials"
	ReasonUnconfirmed    Reason = "unconfirmed_account"
	ReasonDisabled       Reason = "disabled_account"
	ReasonNotFound       Reason = "not_found"
)

// Error is an expected identity failure with a typed reason
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ReasonOf extracts the typed reason from an error, or empty if the
// error is not an identity failure.
func ReasonOf(err error) Reason {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Reason
	}
	return ""
}

func fail(reason Reason, message string) error {
	return &Error{Reason: reason, Message: message}
}

const codeTTL = 15 * time.Minute

// AuthResult is what a successful authentication yields: the confirmed
// user plus the token pair the client session is built from.
type AuthResult struct {
	User        *models.User
	IDToken     string
	AccessToken string
}

// Service implements the identity provider operations
type Service struct {
	db          *gorm.DB
	publisher   *events.Publisher
	logger      zerolog.Logger
	adminEmails map[string]bool
}

// NewService creates the identity service. adminEmails lists addresses
// that receive the admin role on sign-up; publisher may be nil in tests.
func NewService(db *gorm.DB, publisher *events.Publisher, logger zerolog.Logger, adminEmails []string) *Service {
	allow := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		allow[strings.ToLower(email)] = true
	}
	return &Service{
		db:          db,
		publisher:   publisher,
		logger:      logger,
		adminEmails: allow,
	}
}

func (s *Service) publish(eventType string, detail interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, detail)
	}
}

// SignUp creates an unconfirmed account and issues a confirmation code.
// The code is returned so the delivery channel (mail in production, the
// response body in dev mode) stays the caller's concern.
func (s *Service) SignUp(name, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if len(password) < auth.MinPasswordLength {
		return nil, "", fail(ReasonWeakPassword, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}

	var existing models.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, "", fail(ReasonAlreadyExists, "User already exists. Please login to proceed.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleVisitor
	if s.adminEmails[email] {
		role = models.RoleAdmin
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	code, err := s.issueCode(email, models.PurposeConfirm)
	if err != nil {
		return nil, "", err
	}

	s.publish(tasks.TypeUserCreated, map[string]string{"email_id": email})
	s.logger.Info().Str("email", email).Str("role", role).Msg("User registered, confirmation pending")

	return user, code, nil
}

// ConfirmRegistration redeems a confirmation code and marks the account confirmed
func (s *Service) ConfirmRegistration(email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.findUser(email)
	if err != nil {
		return err
	}

	if err := s.consumeCode(email, code, models.PurposeConfirm); err != nil {
		return err
	}

	if err := s.db.Model(user).Update("confirmed", true).Error; err != nil {
		return fmt.Errorf("failed to confirm user: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("Account confirmed")
	return nil
}

// Authenticate verifies credentials and mints the token pair
func (s *Service) Authenticate(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.findUser(email)
	if err != nil {
		return nil, err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, fail(ReasonBadCredentials, "Incorrect username or password.")
	}

	// Credential checks come before account-state checks so a probe with
	// a wrong password never learns whether the account is confirmed.
	if !user.Confirmed {
		return nil, fail(ReasonUnconfirmed, "User is not confirmed.")
	}
	if user.Disabled {
		return nil, fail(ReasonDisabled, "User is disabled.")
	}

	idToken, accessToken, err := auth.GenerateTokenPair(user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.publish(tasks.TypeUserLoggedIn, map[string]string{"email_id": email})
	s.logger.Info().Str("email", email).Msg("User logged in")

	return &AuthResult{User: user, IDToken: idToken, AccessToken: accessToken}, nil
}

// RequestPasswordReset issues a reset code for an existing account
func (s *Service) RequestPasswordReset(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.findUser(email); err != nil {
		return "", err
	}

	code, err := s.issueCode(email, models.PurposeReset)
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("email", email).Msg("Password reset requested")
	return code, nil
}

// ConfirmPasswordReset redeems a reset code and replaces the password.
// Without a live phase-1 code this always fails.
func (s *Service) ConfirmPasswordReset(email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.findUser(email)
	if err != nil {
		return err
	}

	if len(newPassword) < auth.MinPasswordLength {
		return fail(ReasonWeakPassword, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}

	if err := s.consumeCode(email, code, models.PurposeReset); err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Model(user).Update("password_hash", passwordHash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.publish(tasks.TypePasswordReset, map[string]string{"email_id": email})
	s.logger.Info().Str("email", email).Msg("Password reset completed")
	return nil
}

// PurgeExpiredCodes deletes verification codes past their expiry.
// Called periodically from the worker.
func (s *Service) PurgeExpiredCodes(now time.Time) (int64, error) {
	res := s.db.Where("expires_at < ? AND consumed_at IS NULL", now).Delete(&models.VerificationCode{})
	return res.RowsAffected, res.Error
}

func (s *Service) findUser(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ReasonNotFound, "User not found, Signup to proceed")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// issueCode creates a fresh 6-digit code, invalidating earlier
// unconsumed codes for the same email and purpose
func (s *Service) issueCode(email, purpose string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VerificationCode{}).
			Where("email = ? AND purpose = ? AND consumed_at IS NULL", email, purpose).
			Update("consumed_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.VerificationCode{
			Email:     email,
			Code:      code,
			Purpose:   purpose,
			ExpiresAt: now.Add(codeTTL),
		}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	return code, nil
}

// consumeCode validates and spends a code in one transaction
func (s *Service) consumeCode(email, code, purpose string) error {
	now := time.Now()

	var vc models.VerificationCode
	err := s.db.Where("email = ? AND code = ? AND purpose = ?", email, code, purpose).
		Order("created_at DESC").First(&vc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ReasonCodeInvalid, "Invalid verification code provided, please try again.")
		}
		return fmt.Errorf("failed to look up code: %w", err)
	}

	if vc.ConsumedAt != nil {
		return fail(ReasonCodeInvalid, "Invalid verification code provided, please try again.")
	}
	if !now.Before(vc.ExpiresAt) {
		return fail(ReasonCodeExpired, "Verification code has expired, request a new one.")
	}

	if err := s.db.Model(&vc).Update("consumed_at", now).Error; err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
