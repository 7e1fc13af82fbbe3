package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDirectus(t *testing.T, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":{"access_token":"tok-123","expires":900000}}`))
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if role == "" {
			w.Write([]byte(`{"data":{"email":"alice@example.com","first_name":"Alice","last_name":"Souza","role":null}}`))
			return
		}
		w.Write([]byte(`{"data":{"email":"alice@example.com","first_name":"Alice","last_name":"Souza","role":{"name":"` + role + `"}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDirectusClient_LoginAndProfile(t *testing.T) {
	srv := fakeDirectus(t, "Compras")
	c := NewDirectusClient(srv.URL+"/", false)

	token, err := c.Login(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	p, err := c.Profile(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "COMPRAS", p.RoleName)
	assert.Equal(t, "Alice Souza", p.DisplayName)
	assert.Equal(t, "alice@example.com", p.Email)
}

func TestDirectusClient_WrongPassword(t *testing.T) {
	c := NewDirectusClient(fakeDirectus(t, "Vendas").URL, false)

	_, err := c.Login(context.Background(), "alice@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDirectusClient_NoRoleIsPublic(t *testing.T) {
	c := NewDirectusClient(fakeDirectus(t, "").URL, false)

	p, err := c.Profile(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "PUBLIC", p.RoleName)

	p, err = c.Profile(context.Background(), "stale")
	require.NoError(t, err)
	assert.Equal(t, "PUBLIC", p.RoleName)
}

func TestDirectusClient_Unconfigured(t *testing.T) {
	_, err := NewDirectusClient("", false).Login(context.Background(), "a@b.c", "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}
