package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"freelance/internal/common"
	"freelance/internal/common/security"
	"freelance/models"
)

type authRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// RegisterHandler обрабатывает POST /api/auth/register
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req authRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Username) > 80 {
		common.RespondWithError(w, http.StatusBadRequest, "username is required and max length 80")
		return
	}
	if len(req.Password) < 6 {
		common.RespondWithError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	// Роль фиксируется при регистрации и не меняется
	if !req.Role.Valid() {
		common.RespondWithError(w, http.StatusBadRequest, "role must be 'client' or 'contractor'")
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	user := &models.User{Username: req.Username, Role: req.Role, PasswordHash: hash}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if common.IsUniqueViolation(err) {
			common.RespondWithError(w, http.StatusConflict, "username already taken")
			return
		}
		respondDomainError(w, err)
		return
	}

	token, err := security.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// LoginHandler обрабатывает POST /api/auth/login
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req authRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), req.Username)
	if err != nil || !security.CheckPassword(req.Password, user.PasswordHash) {
		common.RespondWithError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := security.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}
