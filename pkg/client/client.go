package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

var (
	// ErrSessionExpired means the refresh path failed and the session was
	// cleared; the caller must log in again.
	ErrSessionExpired = errors.New("session expired, please log in again")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client holds the session state {user, access token, refresh token},
// attaches the bearer token to every call, and recovers from a 401 by
// refreshing the token pair exactly once per request.
//
// Concurrent 401 recoveries are serialized through a single pending refresh:
// the first caller performs the network call, everyone else waits on its
// result. This matters because refresh tokens are one-time-use; independent
// refresh calls would race each other into a forced logout.
type Client struct {
	baseURL string
	http    *http.Client
	store   CredentialStore

	mu           sync.Mutex
	user         *User
	accessToken  string
	refreshToken string
	pending      *pendingRefresh
}

type pendingRefresh struct {
	done        chan struct{}
	accessToken string
	err         error
}

// New builds a client. Previously persisted credentials, if any, are picked
// up from the store so a session survives restarts.
func New(baseURL string, store CredentialStore) (*Client, error) {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   store,
	}
	if store != nil {
		creds, err := store.Load()
		if err != nil {
			return nil, err
		}
		if creds != nil {
			c.accessToken = creds.AccessToken
			c.refreshToken = creds.RefreshToken
			c.user = creds.User
		}
	}
	return c, nil
}

func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != "" && c.user != nil
}

func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

type authPayload struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var payload authPayload
	err := c.doPublic(ctx, http.MethodPost, "/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, &payload)
	if err != nil {
		return nil, err
	}
	c.setSession(payload)
	return payload.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var payload authPayload
	err := c.doPublic(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &payload)
	if err != nil {
		return nil, err
	}
	c.setSession(payload)
	return payload.User, nil
}

// Logout tells the server to revoke the refresh token, then clears local
// state. A network failure must not leave the user logged in locally, so the
// clear happens regardless.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()

	var remoteErr error
	if refresh != "" {
		remoteErr = c.do(ctx, http.MethodPost, "/auth/logout",
			map[string]string{"refreshToken": refresh}, nil)
	}

	c.clearSession()
	return remoteErr
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	var payload struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &payload); err != nil {
		return nil, err
	}
	return payload.User, nil
}

func (c *Client) setSession(payload authPayload) {
	c.mu.Lock()
	c.user = payload.User
	c.accessToken = payload.AccessToken
	c.refreshToken = payload.RefreshToken
	c.persistLocked()
	c.mu.Unlock()
}

func (c *Client) clearSession() {
	c.mu.Lock()
	c.user = nil
	c.accessToken = ""
	c.refreshToken = ""
	if c.store != nil {
		_ = c.store.Clear()
	}
	c.mu.Unlock()
}

func (c *Client) persistLocked() {
	if c.store == nil {
		return
	}
	_ = c.store.Save(Credentials{
		AccessToken:  c.accessToken,
		RefreshToken: c.refreshToken,
		User:         c.user,
	})
}

// do performs an authenticated request. On a 401 it runs the shared refresh
// gate and replays the request at most once; a second 401 is final.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	err := c.send(ctx, method, path, body, token, out)
	if !isUnauthorized(err) {
		return err
	}

	token, err = c.awaitRefresh(ctx)
	if err != nil {
		return ErrSessionExpired
	}

	err = c.send(ctx, method, path, body, token, out)
	if isUnauthorized(err) {
		return ErrSessionExpired
	}
	return err
}

func (c *Client) doPublic(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, path, body, "", out)
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// awaitRefresh serializes 401 recoveries: one caller refreshes, later
// callers block on the same result instead of issuing their own call.
func (c *Client) awaitRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if p := c.pending; p != nil {
		c.mu.Unlock()
		select {
		case <-p.done:
			return p.accessToken, p.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	refresh := c.refreshToken
	p := &pendingRefresh{done: make(chan struct{})}
	c.pending = p
	c.mu.Unlock()

	token, err := c.refresh(ctx, refresh)

	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
	if err != nil {
		// Failed refresh forces the session back to anonymous.
		c.clearSession()
	}

	p.accessToken = token
	p.err = err
	close(p.done)
	return token, err
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrNotLoggedIn
	}

	var payload struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	err := c.send(ctx, http.MethodPost, "/auth/refresh",
		map[string]string{"refreshToken": refreshToken}, "", &payload)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.accessToken = payload.AccessToken
	c.refreshToken = payload.RefreshToken
	c.persistLocked()
	c.mu.Unlock()

	return payload.AccessToken, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// send performs one HTTP round trip and decodes the response envelope.
// Non-2xx responses come back as *APIError carrying the status code.
func (c *Client) send(ctx context.Context, method, path string, body any, token string, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: "malformed response"}
		}
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return err
		}
	}
	return nil
}

func listQuery(opts ListOptions) string {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Priority != "" {
		q.Set("priority", opts.Priority)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
