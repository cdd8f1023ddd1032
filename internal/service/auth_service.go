package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"tourismcam/internal/auth"
	"tourismcam/internal/models"
	"tourismcam/internal/observability"
	"tourismcam/internal/repository"
)

const (
	errInvalidCredentials = "Invalid email or password"
	errTokenRequired      = "Authorization token is required"
	errTokenInvalid       = "Invalid or expired token"
	forgotPasswordMessage = "If an account exists for that email, a reset link has been sent"
)

var nonHandle = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// AuthConfig tunes session and reset token lifetimes.
type AuthConfig struct {
	SessionTTL       time.Duration
	ResetTokenTTL    time.Duration
	ExposeResetToken bool
}

type AuthService struct {
	users    repository.UserRepository
	sessions auth.SessionStore
	tokens   *auth.TokenIssuer
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions auth.SessionStore,
	tokens *auth.TokenIssuer,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	if err := validate(req); err != nil {
		observability.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}

	email := strings.ToLower(req.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if existing != nil {
		observability.AuthAttempts.WithLabelValues("register", "conflict").Inc()
		return nil, models.NewConflictError("An account with this email already exists")
	}

	username := req.Username
	if username == "" {
		if username, err = s.deriveUsername(ctx, email); err != nil {
			return nil, err
		}
	} else if taken, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, models.NewInternalError(err)
	} else if taken != nil {
		return nil, models.NewConflictError("Username is already taken")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:    email,
		Username: username,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     models.RoleUser,
		Password: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError(err, "User", email)
	}

	observability.AuthAttempts.WithLabelValues("register", "success").Inc()
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.startSession(ctx, user)
}

// deriveUsername turns the email local part into a free handle.
func (s *AuthService) deriveUsername(ctx context.Context, email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")
	base := nonHandle.ReplaceAllString(local, "")
	if len(base) < 3 {
		base = "traveler" + base
	}
	if len(base) > 24 {
		base = base[:24]
	}

	candidate := base
	for i := 2; i < 1000; i++ {
		taken, err := s.users.GetByUsername(ctx, candidate)
		if err != nil {
			return "", models.NewInternalError(err)
		}
		if taken == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", models.NewConflictError("Could not derive a free username")
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (resp *models.AuthResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Login")
	defer func() { observability.EndSpan(span, err) }()

	if err := validate(req); err != nil {
		observability.AuthAttempts.WithLabelValues("login", "invalid").Inc()
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		observability.AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, models.NewUnauthorizedError(errInvalidCredentials)
	}

	observability.AuthAttempts.WithLabelValues("login", "success").Inc()
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	sessionID := auth.NewSessionID()
	token, expires, err := s.tokens.Issue(user.ID, sessionID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	session := &models.Session{
		SessionID: sessionID,
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: expires,
		CreatedAt: s.now(),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, models.NewInternalError(err)
	}

	return &models.AuthResponse{
		User:      user,
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expires,
	}, nil
}

// Logout drops the session. Unknown sessions are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user and live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, models.NewUnauthorizedError(errTokenRequired)
	}

	userID, sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, models.NewUnauthorizedError(errTokenInvalid)
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	if session == nil || session.UserID != userID || session.Token != token {
		return nil, nil, models.NewUnauthorizedError(errTokenInvalid)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, nil, models.NewUnauthorizedError(errTokenInvalid)
	}
	return user, session, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(err, "User", userID)
	}
	return user, nil
}

// ForgotPassword always reports success so it cannot be used to probe for
// accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (*models.ForgotPasswordResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	resp := &models.ForgotPasswordResponse{Message: forgotPasswordMessage}
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return resp, nil
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.sessions.SaveResetToken(ctx, token, user.ID, s.cfg.ResetTokenTTL); err != nil {
		return nil, models.NewInternalError(err)
	}
	slog.InfoContext(ctx, "password reset requested", "user_id", user.ID)

	if s.cfg.ExposeResetToken {
		resp.ResetToken = token
	}
	return resp, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	userID, ok, err := s.sessions.ConsumeResetToken(ctx, req.Token)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		return models.NewValidationError("Reset token is invalid or has expired")
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = hash
	if err := s.users.Update(ctx, user); err != nil {
		return storeError(err, "User", userID)
	}
	return nil
}
