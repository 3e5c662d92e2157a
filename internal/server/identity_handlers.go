package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookhub-dev/bookhub/internal/identity"
)

// SignupRequest represents a sign-up request
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email_id" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyEmailRequest redeems a confirmation code
type VerifyEmailRequest struct {
	Email string `json:"email_id" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email_id" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email_id" binding:"required,email"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Email       string `json:"email_id" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// reasonStatus maps identity failure reasons onto domain status codes
func reasonStatus(reason identity.Reason) int {
	switch reason {
	case identity.ReasonBadCredentials:
		return http.StatusUnauthorized
	case identity.ReasonUnconfirmed, identity.ReasonDisabled:
		return http.StatusForbidden
	case identity.ReasonNotFound:
		return http.StatusNotFound
	case identity.ReasonAlreadyExists, identity.ReasonWeakPassword,
		identity.ReasonCodeInvalid, identity.ReasonCodeExpired:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// identityFailure answers an identity service error; unexpected errors
// are logged and collapsed into a 500 envelope
func (s *Server) identityFailure(c *gin.Context, err error) {
	reason := identity.ReasonOf(err)
	if reason == "" {
		s.logger.Error().Err(err).Msg("Identity operation failed")
		internalError(c)
		return
	}
	envelopeWith(c, reasonStatus(reason), err.Error(), gin.H{"reason": string(reason)})
}

// @Summary Sign up
// @Description Creates an unconfirmed account and issues a confirmation code
// @Tags identity
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Sign-up request"
// @Success 200 {object} map[string]interface{}
// @Router /signup [post]
func (s *Server) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	_, code, err := s.identity.SignUp(req.Name, req.Email, req.Password)
	if err != nil {
		s.identityFailure(c, err)
		return
	}

	// Delivery is the mail pipeline's job; until one is wired up the
	// code is logged so operators can relay it.
	s.logger.Info().Str("email", req.Email).Str("code", code).Msg("Confirmation code issued")

	envelope(c, http.StatusOK, "User registered successfully. Confirm your email to continue.")
}

// @Summary Verify email
// @Description Confirms an account with the emailed code
// @Tags identity
// @Accept json
// @Produce json
// @Param request body VerifyEmailRequest true "Verification request"
// @Success 200 {object} map[string]interface{}
// @Router /verify-email [post]
func (s *Server) verifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.validator.Var(req.Code, "verifycode"); err != nil {
		envelope(c, http.StatusBadRequest, "Invalid verification code provided, please try again.")
		return
	}

	if err := s.identity.ConfirmRegistration(req.Email, req.Code); err != nil {
		s.identityFailure(c, err)
		return
	}

	envelope(c, http.StatusOK, "Email confirmed. You can now sign in.")
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags identity
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} map[string]interface{}
// @Router /login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.identity.Authenticate(req.Email, req.Password)
	if err != nil {
		s.identityFailure(c, err)
		return
	}

	envelopeWith(c, http.StatusOK, "Login successful", gin.H{
		"name":         res.User.Name,
		"email_id":     res.User.Email,
		"role":         res.User.Role,
		"id_token":     res.IDToken,
		"access_token": res.AccessToken,
	})
}

// @Summary Forgot password
// @Description Issues a password reset code
// @Tags identity
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} map[string]interface{}
// @Router /forgot-password [post]
func (s *Server) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, err := s.identity.RequestPasswordReset(req.Email)
	if err != nil {
		s.identityFailure(c, err)
		return
	}

	s.logger.Info().Str("email", req.Email).Str("code", code).Msg("Password reset code issued")

	envelope(c, http.StatusOK, "Password reset code sent")
}

// @Summary Reset password
// @Description Completes the reset flow with the emailed code
// @Tags identity
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset password request"
// @Success 200 {object} map[string]interface{}
// @Router /reset-password [post]
func (s *Server) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.identity.ConfirmPasswordReset(req.Email, req.Code, req.NewPassword); err != nil {
		s.identityFailure(c, err)
		return
	}

	envelope(c, http.StatusOK, "Password reset successfully")
}
