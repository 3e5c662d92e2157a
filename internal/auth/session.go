package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email_id"`
	Role   string `json:"role"`
}
