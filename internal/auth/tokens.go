// Package auth issues API tokens and keeps login sessions and password reset
// tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tourismcam/internal/models"
)

const (
	Issuer   = "tourismcam-api"
	Audience = "tourismcam-client"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrInvalidToken   = errors.New("invalid or expired token")
)

// Claims are the JWT claims carried after the token prefix.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer; ttl bounds token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewSessionID returns a fresh "session_" prefixed identifier.
func NewSessionID() string {
	return models.SessionIDPrefix + uuid.NewString()
}

// Issue returns the prefixed token for userID bound to sessionID.
func (i *TokenIssuer) Issue(userID uint, sessionID string) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return models.TokenPrefix + signed, expires, nil
}

// Parse verifies a prefixed token and returns the user and session it names.
func (i *TokenIssuer) Parse(token string) (uint, string, error) {
	raw, ok := strings.CutPrefix(token, models.TokenPrefix)
	if !ok || raw == "" {
		return 0, "", ErrMalformedToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return 0, "", ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 || claims.SessionID == "" {
		return 0, "", ErrInvalidToken
	}
	return uint(id), claims.SessionID, nil
}
