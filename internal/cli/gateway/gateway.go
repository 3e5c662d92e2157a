// Package gateway wraps the identity provider's auth lifecycle
// operations. Every operation is one external call resolving to success
// or a typed failure the caller presents to the user; nothing is retried
// and nothing may be assumed idempotent.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bookhub-dev/bookhub/internal/cli/session"
)

// Reason is the provider-reported cause of an expected auth failure
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

// Error is an expected failure reported by the identity provider.
// Transport failures (provider unreachable) are plain errors instead.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ReasonOf extracts the typed reason, or empty for transport failures
func ReasonOf(err error) Reason {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Reason
	}
	return ""
}

// Gateway is the HTTP client for the identity provider
type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a gateway against the given provider base URL
func New(baseURL string) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (g *Gateway) SetHTTPClient(httpClient *http.Client) {
	g.httpClient = httpClient
}

// authResponse is the provider's envelope for identity operations
type authResponse struct {
	StatusCode  int    `json:"statusCode"`
	Message     string `json:"message"`
	Reason      string `json:"reason"`
	Name        string `json:"name"`
	Email       string `json:"email_id"`
	Role        string `json:"role"`
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

func (g *Gateway) post(ctx context.Context, path string, body interface{}) (*authResponse, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	// The domain outcome rides in the body's statusCode, separate from
	// the transport status
	if parsed.StatusCode >= 200 && parsed.StatusCode < 300 {
		return &parsed, nil
	}

	return nil, &Error{
		Reason:  Reason(parsed.Reason),
		Message: parsed.Message,
	}
}

// SignUp creates an account left in the pending-confirmation state.
// Re-submitting an email that already registered fails with
// ReasonAlreadyExists; it never silently succeeds.
func (g *Gateway) SignUp(ctx context.Context, name, email, password string) error {
	_, err := g.post(ctx, "/signup", map[string]string{
		"name":     name,
		"email_id": email,
		"password": password,
	})
	return err
}

// ConfirmRegistration redeems the emailed confirmation code
func (g *Gateway) ConfirmRegistration(ctx context.Context, email, code string) error {
	_, err := g.post(ctx, "/verify-email", map[string]string{
		"email_id": email,
		"code":     code,
	})
	return err
}

// Authenticate signs in and yields the full identity consumed by the
// session store
func (g *Gateway) Authenticate(ctx context.Context, email, password string) (session.Session, error) {
	resp, err := g.post(ctx, "/login", map[string]string{
		"email_id": email,
		"password": password,
	})
	if err != nil {
		return session.Session{}, err
	}

	return session.Session{
		Name:        resp.Name,
		Email:       resp.Email,
		Role:        resp.Role,
		IDToken:     resp.IDToken,
		AccessToken: resp.AccessToken,
	}, nil
}

// RequestPasswordReset triggers the out-of-band reset code delivery
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := g.post(ctx, "/forgot-password", map[string]string{
		"email_id": email,
	})
	return err
}

// ConfirmPasswordReset consumes the reset code from the first phase.
// Without a valid phase-1 code this fails, never silently succeeds.
func (g *Gateway) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	_, err := g.post(ctx, "/reset-password", map[string]string{
		"email_id":     email,
		"code":         code,
		"new_password": newPassword,
	})
	return err
}
