package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tourismcam/internal/auth"
	"tourismcam/internal/config"
	"tourismcam/internal/models"
	"tourismcam/internal/repository"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            "server-test-secret-long-enough-0123456789",
		SessionTTLHours:      1,
		ResetTokenTTLMinutes: 10,
		StoreDriver:          config.StoreMemory,
		FeatureFlags:         "saved_posts=on,view_counting=on",
		ProtectedPaths:       "/upload,/profile,/saved,/settings",
		AuthPages:            "/login,/register,/forgot-password",
	}
}

func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	s, err := NewServer(Deps{
		Config: testConfig(),
		Store:  repository.NewMemoryStore().Store(),
	})
	require.NoError(t, err)
	return s, s.App()
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func registerUser(t *testing.T, app *fiber.App, email, name string) models.AuthResponse {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Email: email, Password: "password123", Name: name,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out models.AuthResponse
	decode(t, resp, &out)
	return out
}

func createPost(t *testing.T, app *fiber.App, token string, req models.CreatePostRequest) models.Post {
	t.Helper()
	if req.ImageURL == "" {
		req.ImageURL = "https://cdn.example.com/pano.jpg"
	}
	resp := doJSON(t, app, http.MethodPost, "/api/posts", req, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out models.Post
	decode(t, resp, &out)
	return out
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
	_, err = NewServer(Deps{Config: testConfig()})
	assert.Error(t, err)
}

func TestHealthEndpoints(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "memory", body.Checks["store"])
	assert.Equal(t, "disabled", body.Checks["redis"])

	resp = doJSON(t, app, http.MethodGet, "/api/feature-flags", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var flags struct {
		Flags map[string]bool `json:"flags"`
	}
	decode(t, resp, &flags)
	assert.True(t, flags.Flags["saved_posts"])
}

func TestRequestIDAndTraceHeaders(t *testing.T) {
	_, app := newTestServer(t)
	resp := doJSON(t, app, http.MethodGet, "/health/live", nil, "")
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestParseIDRejectsGarbage(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/posts/abc", nil, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body models.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "Invalid ID", body.Error)
	assert.Equal(t, models.CodeValidation, body.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	_, app := newTestServer(t)
	resp := doJSON(t, app, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "comment ID", humanizeParam("commentId"))
	assert.Equal(t, "slug", humanizeParam("slug"))
}
