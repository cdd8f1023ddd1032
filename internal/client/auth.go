package client

import (
	"context"
	"net/http"

	"tourismcam/internal/models"
)

// AuthService covers /auth. Successful login and register store the issued
// credentials in the client's token store.
type AuthService struct{ c *Client }

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := s.c.do(ctx, http.MethodPost, apiBase, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, s.remember(&resp)
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.c.do(ctx, http.MethodPost, apiBase, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, s.remember(&resp)
}

func (s *AuthService) remember(resp *models.AuthResponse) error {
	err := s.c.tokens.Save(Credentials{Token: resp.Token, SessionID: resp.SessionID, ExpiresAt: resp.ExpiresAt})
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "Signed in, but the session could not be stored", Err: err}
	}
	return nil
}

// Logout ends the server session, then drops local credentials and cancels
// in-flight requests whether or not the server call succeeded.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.c.do(ctx, http.MethodPost, apiBase, "/auth/logout", nil, nil, nil)
	if cerr := s.c.tokens.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	s.c.ResetSession()
	return err
}

// Me fetches the user the stored token belongs to.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	var resp models.UserResponse
	if err := s.c.do(ctx, http.MethodGet, apiBase, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var resp models.UserResponse
	if err := s.c.do(ctx, http.MethodPut, apiBase, "/auth/profile", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*models.ForgotPasswordResponse, error) {
	var resp models.ForgotPasswordResponse
	req := models.ForgotPasswordRequest{Email: email}
	if err := s.c.do(ctx, http.MethodPost, apiBase, "/auth/forgot-password", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	req := models.ResetPasswordRequest{Token: token, Password: password}
	return s.c.do(ctx, http.MethodPost, apiBase, "/auth/reset-password", nil, req, nil)
}
