// Package testkit runs the real API in-process for client and store tests.
package testkit

import (
	"context"
	"net"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"tourismcam/internal/auth"
	"tourismcam/internal/config"
	"tourismcam/internal/repository"
	"tourismcam/internal/seed"
	"tourismcam/internal/server"
)

// Demo credentials from the embedded fixtures.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
)

// API is a running server on a loopback port.
type API struct {
	URL    string // base URL including /api
	Store  repository.Store
	Server *server.Server
}

// Config returns the test server configuration.
func Config() *config.Config {
	return &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            "testkit-secret-that-is-long-enough-42",
		SessionTTLHours:      1,
		ResetTokenTTLMinutes: 10,
		StoreDriver:          config.StoreMemory,
		FeatureFlags:         "saved_posts=on,view_counting=on",
		ProtectedPaths:       "/upload,/profile,/saved,/settings",
		AuthPages:            "/login,/register,/forgot-password",
	}
}

// StartAPI serves a seeded memory store until the test ends.
func StartAPI(t testing.TB) *API {
	t.Helper()
	auth.HashCost = bcrypt.MinCost

	store := repository.NewMemoryStore().Store()
	if _, err := seed.Demo(context.Background(), store); err != nil {
		t.Fatalf("seed demo data: %v", err)
	}

	srv, err := server.NewServer(server.Deps{Config: Config(), Store: store})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	app := srv.App()
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return &API{
		URL:    "http://" + ln.Addr().String() + "/api",
		Store:  store,
		Server: srv,
	}
}
