package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"freelance/internal/common/security"
	"freelance/models"
)

func initTestJWT(t *testing.T) {
	t.Helper()
	security.InitJWT([]byte("test-secret"), time.Hour)
}

func TestRegisterHandler(t *testing.T) {
	initTestJWT(t)
	store := &MockStorage{}
	h, _ := newTestHandler(store)

	body := `{"username":"alice","password":"secret1","role":"client"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.RegisterHandler(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "alice", resp.User.Username)
	require.Equal(t, models.RoleClient, resp.User.Role)
	require.NotEmpty(t, resp.Token)
}

func TestRegisterHandlerValidation(t *testing.T) {
	initTestJWT(t)
	store := &MockStorage{}
	h, _ := newTestHandler(store)

	cases := []struct {
		name string
		body string
	}{
		{"empty username", `{"username":"","password":"secret1","role":"client"}`},
		{"short password", `{"username":"alice","password":"123","role":"client"}`},
		{"unknown role", `{"username":"alice","password":"secret1","role":"admin"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.RegisterHandler(rr, req)
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestLoginHandler(t *testing.T) {
	initTestJWT(t)
	hash, err := security.HashPassword("secret1")
	require.NoError(t, err)
	store := &MockStorage{
		user: &models.User{ID: 10, Username: "alice", Role: models.RoleClient, PasswordHash: hash},
	}
	h, _ := newTestHandler(store)

	body := `{"username":"alice","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.LoginHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	initTestJWT(t)
	hash, err := security.HashPassword("secret1")
	require.NoError(t, err)
	store := &MockStorage{
		user: &models.User{ID: 10, Username: "alice", Role: models.RoleClient, PasswordHash: hash},
	}
	h, _ := newTestHandler(store)

	body := `{"username":"alice","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.LoginHandler(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginHandlerUnknownUser(t *testing.T) {
	initTestJWT(t)
	store := &MockStorage{}
	h, _ := newTestHandler(store)

	body := `{"username":"ghost","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.LoginHandler(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
