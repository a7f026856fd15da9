package spacetrack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/spade/internal/fetch"
)

func newServer(t *testing.T, loginReply string, loginStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ajaxauth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("identity") == "" || r.PostForm.Get("password") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if loginStatus == http.StatusOK {
			http.SetCookie(w, &http.Cookie{Name: "chocolatechip", Value: "abc", Path: "/"})
		}
		w.WriteHeader(loginStatus)
		_, _ = w.Write([]byte(loginReply))
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("chocolatechip"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("<ndm/>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func clientFor(srv *httptest.Server, user, pass string) *Client {
	return New(fetch.New(), Config{
		AuthURL:    srv.URL + "/ajaxauth/login",
		CatalogURL: srv.URL + "/query",
		Username:   user,
		Password:   pass,
	})
}

func TestAuthenticateThenFetch(t *testing.T) {
	srv := newServer(t, `""`, http.StatusOK)
	c := clientFor(srv, "user", "pw")

	require.NoError(t, c.Authenticate(context.Background()))
	body, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Equal(t, "<ndm/>", string(body))
}

func TestFetchWithoutLoginFails(t *testing.T) {
	srv := newServer(t, `""`, http.StatusOK)
	_, err := clientFor(srv, "user", "pw").FetchCatalog(context.Background())
	var se *fetch.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestAuthenticateFailures(t *testing.T) {
	cases := []struct {
		name   string
		reply  string
		status int
		user   string
	}{
		{"refused with 200", `{"Login":"Failed"}`, http.StatusOK, "user"},
		{"http error", "denied", http.StatusUnauthorized, "user"},
		{"missing credentials", "", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.reply, tc.status)
			err := clientFor(srv, tc.user, "pw").Authenticate(context.Background())
			require.ErrorIs(t, err, ErrAuthentication)
		})
	}
}

func TestMissingCredentialsSendNothing(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	err := New(fetch.New(), Config{AuthURL: srv.URL}).Authenticate(context.Background())
	require.ErrorIs(t, err, ErrMissingCredentials)
	require.False(t, called)
}

func TestDefaults(t *testing.T) {
	c := New(fetch.New(), Config{})
	require.Equal(t, DefaultAuthURL, c.cfg.AuthURL)
	require.Equal(t, DefaultCatalogURL, c.cfg.CatalogURL)
}
