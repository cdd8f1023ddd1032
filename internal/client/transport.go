package client

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// bearerTransport attaches the current token to every request. The token is
// read at request time so a login or logout takes effect on the next call.
type bearerTransport struct {
	next   http.RoundTripper
	tokens TokenStore
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	creds, err := t.tokens.Load()
	if err != nil || creds.Empty() || req.Header.Get("Authorization") != "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+creds.Token)
	return t.next.RoundTrip(r)
}

// unauthorizedTransport calls the hook when a request that carried a token
// is answered with 401. Anonymous 401s, such as a failed login, do not count.
type unauthorizedTransport struct {
	next http.RoundTripper

	mu   sync.RWMutex
	hook func()
}

func (t *unauthorizedTransport) setHook(fn func()) {
	t.mu.Lock()
	t.hook = fn
	t.mu.Unlock()
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || req.Header.Get("Authorization") == "" {
		return resp, err
	}

	// The hook may reset the session and cancel this request's context, so
	// buffer the body before running it.
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	t.mu.RLock()
	hook := t.hook
	t.mu.RUnlock()
	if hook != nil {
		hook()
	}
	return resp, nil
}
