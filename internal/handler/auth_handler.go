package handler

import (
	"encoding/json"
	"net/http"

	"freightdesk/internal/middleware"
	"freightdesk/internal/model"
	"freightdesk/internal/service"
	"freightdesk/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body", ""))
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, "Login successful", nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(middleware.TokenFromContext(r.Context()))
	writeSuccess(w, http.StatusOK, nil, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Authentication required"))
		return
	}

	user, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, "", nil)
}
