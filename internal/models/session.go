package models

import "time"

// Prefixes the API puts on issued credentials.
const (
	TokenPrefix     = "mock_jwt_token_"
	SessionIDPrefix = "session_"
)

// Session is a server-side login record keyed by SessionID.
type Session struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	UserID    uint      `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
