package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"delivery-order-system/services/api-gateway/internal/repo"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/models"
)

type UserAuthenticator interface {
	GetByEmail(ctx context.Context, email string) (models.User, string, error)
}

type LoginHandler struct {
	Users  UserAuthenticator
	Tokens *auth.Tokens
	Log    zerolog.Logger
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	u, hash, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			h.Log.Error().Err(err).Msg("get user failed")
		}
		// Same answer for unknown email and wrong password.
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !auth.CheckPassword(hash, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.Tokens.Issue(u.ID, u.Role, u.Email)
	if err != nil {
		h.Log.Error().Err(err).Msg("issue token failed")
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, authResp{ID: u.ID, Token: token})
}
