package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"delivery-order-system/services/api-gateway/internal/repo"
	"delivery-order-system/shared/pkg/auth"
	"delivery-order-system/shared/pkg/models"
)

type UserCreator interface {
	Create(ctx context.Context, u models.User, passwordHash, vehicleType string) error
}

type SignupHandler struct {
	Users  UserCreator
	Tokens *auth.Tokens
	Log    zerolog.Logger
}

type signupReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	VehicleType string `json:"vehicle_type"`
}

type authResp struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	role := models.Role(req.Role)
	switch {
	case req.Name == "" || !strings.Contains(req.Email, "@"):
		http.Error(w, "invalid name or email", http.StatusBadRequest)
		return
	case len(req.Password) < 8:
		http.Error(w, "password too short", http.StatusBadRequest)
		return
	case role != models.RoleCustomer && role != models.RoleTransporter:
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	case role == models.RoleTransporter && req.VehicleType == "":
		http.Error(w, "vehicle_type required for transporters", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.Error().Err(err).Msg("hash password failed")
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	u := models.User{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  role,
	}
	if err := h.Users.Create(r.Context(), u, hash, req.VehicleType); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.Log.Error().Err(err).Msg("create user failed")
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	token, err := h.Tokens.Issue(u.ID, u.Role, u.Email)
	if err != nil {
		h.Log.Error().Err(err).Msg("issue token failed")
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, authResp{ID: u.ID, Token: token})
}
