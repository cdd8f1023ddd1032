package store

import (
	"context"
	"log/slog"
	"sync"

	"tourismcam/internal/client"
	"tourismcam/internal/models"
	"tourismcam/internal/routegate"
)

// Phase is the auth state machine position.
type Phase string

const (
	PhaseAnonymous     Phase = "anonymous"
	PhaseLoading       Phase = "loading"
	PhaseAuthenticated Phase = "authenticated"
	// PhaseError is anonymous with a failure message to show.
	PhaseError Phase = "error"
)

// AuthStorageKey is where the persisted identity lives.
const AuthStorageKey = "auth-storage"

// AuthState is a snapshot handed to readers and listeners.
type AuthState struct {
	Phase           Phase
	User            *models.User
	IsAuthenticated bool
	Error           string
}

// persistedAuth is the only part of AuthState written to storage. The token
// stays in the token store.
type persistedAuth struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"is_authenticated"`
}

// Navigator moves the UI to another page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// AuthStore tracks who is signed in.
type AuthStore struct {
	client    *client.Client
	persist   Persister
	nav       Navigator
	LoginPath string

	mu        sync.Mutex
	state     AuthState
	listeners map[int]func(AuthState)
	nextID    int
}

// NewAuthStore rehydrates the persisted identity and installs the store as
// the client's 401 handler. nav may be nil.
func NewAuthStore(c *client.Client, p Persister, nav Navigator) *AuthStore {
	s := &AuthStore{
		client:    c,
		persist:   p,
		nav:       nav,
		LoginPath: routegate.DefaultLoginPath,
		state:     AuthState{Phase: PhaseAnonymous},
		listeners: make(map[int]func(AuthState)),
	}

	var saved persistedAuth
	if ok, err := p.Load(AuthStorageKey, &saved); err != nil {
		slog.Warn("discarding unreadable auth storage", "error", err)
	} else if ok && saved.IsAuthenticated && saved.User != nil {
		s.state = AuthState{Phase: PhaseAuthenticated, User: saved.User, IsAuthenticated: true}
	}

	c.SetOnUnauthorized(s.HandleUnauthorized)
	return s
}

// State returns the current snapshot.
func (s *AuthStore) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser returns the signed-in user or nil.
func (s *AuthStore) CurrentUser() *models.User {
	st := s.State()
	if !st.IsAuthenticated {
		return nil
	}
	return st.User
}

// HasToken reports whether a bearer token is held. It says nothing about
// whether the server still accepts it.
func (s *AuthStore) HasToken() bool {
	creds, err := s.client.Tokens().Load()
	return err == nil && !creds.Empty()
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (s *AuthStore) Subscribe(fn func(AuthState)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// set replaces the state, persists the identity and notifies listeners.
func (s *AuthStore) set(next AuthState) {
	s.mu.Lock()
	fns := s.swapLocked(next)
	s.mu.Unlock()
	s.publish(next, fns)
}

func (s *AuthStore) swapLocked(next AuthState) []func(AuthState) {
	s.state = next
	fns := make([]func(AuthState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func (s *AuthStore) publish(next AuthState, fns []func(AuthState)) {
	if next.Phase != PhaseLoading {
		doc := persistedAuth{User: next.User, IsAuthenticated: next.IsAuthenticated}
		if !next.IsAuthenticated {
			doc.User = nil
		}
		if err := s.persist.Save(AuthStorageKey, doc); err != nil {
			slog.Warn("failed to persist auth state", "error", err)
		}
	}
	for _, fn := range fns {
		fn(next)
	}
}

// beginLoading enters the loading phase unless it is already there.
func (s *AuthStore) beginLoading() (AuthState, bool) {
	s.mu.Lock()
	prev := s.state
	if prev.Phase == PhaseLoading {
		s.mu.Unlock()
		return prev, false
	}
	next := AuthState{Phase: PhaseLoading, User: prev.User}
	fns := s.swapLocked(next)
	s.mu.Unlock()
	s.publish(next, fns)
	return prev, true
}

func (s *AuthStore) fail(err error) {
	s.set(AuthState{Phase: PhaseError, Error: client.Message(err)})
}

func (s *AuthStore) signedIn(u *models.User) {
	s.set(AuthState{Phase: PhaseAuthenticated, User: u, IsAuthenticated: true})
}

// Login signs in. On failure the store stays anonymous with the message.
func (s *AuthStore) Login(ctx context.Context, email, password string) error {
	s.set(AuthState{Phase: PhaseLoading})
	resp, err := s.client.Auth.Login(ctx, email, password)
	if err != nil {
		s.fail(err)
		return err
	}
	s.signedIn(resp.User)
	return nil
}

// Register creates an account and signs in with it.
func (s *AuthStore) Register(ctx context.Context, req models.RegisterRequest) error {
	s.set(AuthState{Phase: PhaseLoading})
	resp, err := s.client.Auth.Register(ctx, req)
	if err != nil {
		s.fail(err)
		return err
	}
	s.signedIn(resp.User)
	return nil
}

// Logout always ends anonymous, even if the server call fails.
func (s *AuthStore) Logout(ctx context.Context) error {
	err := s.client.Auth.Logout(ctx)
	s.set(AuthState{Phase: PhaseAnonymous})
	return err
}

// CheckAuthStatus validates a held token by fetching the current user. It
// does nothing while another auth call is loading. Without a token the
// state is cleared. A failure other than 401 keeps the previous identity.
func (s *AuthStore) CheckAuthStatus(ctx context.Context) error {
	if !s.HasToken() {
		s.mu.Lock()
		loading := s.state.Phase == PhaseLoading
		s.mu.Unlock()
		if !loading {
			s.set(AuthState{Phase: PhaseAnonymous})
		}
		return nil
	}

	prev, ok := s.beginLoading()
	if !ok {
		return nil
	}
	user, err := s.client.Auth.Me(ctx)
	switch {
	case err == nil:
		s.signedIn(user)
		return nil
	case client.IsKind(err, client.KindUnauthorized):
		// HandleUnauthorized already cleared the token.
		s.set(AuthState{Phase: PhaseAnonymous})
		return err
	default:
		prev.Error = client.Message(err)
		s.set(prev)
		return err
	}
}

// UpdateProfile saves profile changes and then refetches the current user
// whether or not the update succeeded. Nothing is applied optimistically.
func (s *AuthStore) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) error {
	_, updateErr := s.client.Auth.UpdateProfile(ctx, req)

	user, err := s.client.Auth.Me(ctx)
	if err != nil {
		if !client.IsKind(err, client.KindUnauthorized) {
			st := s.State()
			st.Error = client.Message(err)
			s.set(st)
		}
		if updateErr != nil {
			return updateErr
		}
		return err
	}

	next := AuthState{Phase: PhaseAuthenticated, User: user, IsAuthenticated: true}
	if updateErr != nil {
		next.Error = client.Message(updateErr)
	}
	s.set(next)
	return updateErr
}

// HandleUnauthorized runs when an authenticated call is rejected: the token
// is dropped, the state cleared and the UI sent to the login page.
func (s *AuthStore) HandleUnauthorized() {
	if err := s.client.Tokens().Clear(); err != nil {
		slog.Warn("failed to clear credentials", "error", err)
	}
	s.set(AuthState{Phase: PhaseAnonymous})
	if s.nav != nil {
		s.nav.Navigate(s.LoginPath)
	}
}
