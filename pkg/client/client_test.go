package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "message": "ok", "data": data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func newSeededClient(t *testing.T, baseURL string, creds Credentials) *Client {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(creds))

	c, err := New(baseURL, store)
	require.NoError(t, err)
	return c
}

func TestClient_ConcurrentRefreshIsSingleFlight(t *testing.T) {
	var refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		// Keep the refresh in flight long enough for every caller to queue
		// up behind it.
		time.Sleep(150 * time.Millisecond)
		ok(w, http.StatusOK, map[string]string{
			"accessToken":  "new-access",
			"refreshToken": "new-refresh",
		})
	})
	mux.HandleFunc("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-access" {
			fail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ok(w, http.StatusOK, map[string]any{"user": User{ID: 1, Email: "a@b.c"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newSeededClient(t, srv.URL, Credentials{
		AccessToken:  "stale-access",
		RefreshToken: "old-refresh",
		User:         &User{ID: 1},
	})

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Profile(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshCalls),
		"concurrent 401 recoveries must share one refresh call")
}

func TestClient_RefreshFailureForcesLogout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusUnauthorized, "invalid or expired refresh token")
	})
	mux.HandleFunc("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusUnauthorized, "Unauthorized")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(Credentials{
		AccessToken:  "stale",
		RefreshToken: "rotated-already",
		User:         &User{ID: 1},
	}))
	c, err := New(srv.URL, store)
	require.NoError(t, err)

	_, err = c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, c.IsAuthenticated())

	// Durable state is cleared too: a restarted client is anonymous.
	creds, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, creds.AccessToken)
	assert.Empty(t, creds.RefreshToken)
	assert.Nil(t, creds.User)
}

func TestClient_RetriesAtMostOnce(t *testing.T) {
	var profileCalls, refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refreshCalls, 1)
		ok(w, http.StatusOK, map[string]string{
			"accessToken":  "fresh-but-still-rejected",
			"refreshToken": "next-refresh",
		})
	})
	mux.HandleFunc("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&profileCalls, 1)
		// Keeps rejecting even the refreshed token.
		fail(w, http.StatusUnauthorized, "Unauthorized")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newSeededClient(t, srv.URL, Credentials{
		AccessToken:  "a",
		RefreshToken: "r",
		User:         &User{ID: 1},
	})

	_, err := c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int64(2), atomic.LoadInt64(&profileCalls), "original call plus exactly one replay")
	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshCalls))
}

func TestClient_LoginPersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]any{
			"user":         User{ID: 5, Name: "Dana", Email: "dana@example.com"},
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	c, err := New(srv.URL, store)
	require.NoError(t, err)

	user, err := c.Login(context.Background(), "dana@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.True(t, c.IsAuthenticated())

	// A brand-new client picks the session up from the store.
	c2, err := New(srv.URL, store)
	require.NoError(t, err)
	assert.True(t, c2.IsAuthenticated())
	assert.Equal(t, "Dana", c2.CurrentUser().Name)
}

func TestClient_LoginBadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusUnauthorized, "invalid email or password")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "x@y.z", "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, c.IsAuthenticated())
}

func TestClient_LogoutClearsStateEvenWhenServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // every call fails at the network layer

	c := newSeededClient(t, srv.URL, Credentials{
		AccessToken:  "a",
		RefreshToken: "r",
		User:         &User{ID: 1},
	})

	err := c.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, c.IsAuthenticated())
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	in := Credentials{
		AccessToken:  "acc",
		RefreshToken: "ref",
		User:         &User{ID: 9, Name: "N", Email: "n@example.com"},
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.Equal(t, in.RefreshToken, out.RefreshToken)
	require.NotNil(t, out.User)
	assert.Equal(t, "n@example.com", out.User.Email)

	require.NoError(t, store.Clear())
	empty, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, empty.AccessToken)
	assert.Nil(t, empty.User)
}
