package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type SessionResponseDTO struct {
	SessionID string `json:"sessionId"`
	LoggedIn  bool   `json:"loggedIn"`
	IsAdmin   bool   `json:"isAdmin"`
}

type SetTokenRequestDTO struct {
	Token string `json:"token"`
}

// GET /api/v1/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	respondJSON(w, http.StatusOK, SessionResponseDTO{
		SessionID: sess.ID,
		LoggedIn:  sess.Auth.LoggedIn(r.Context()),
		IsAdmin:   sess.Auth.IsAdmin(r.Context()),
	})
}

// PUT /api/v1/session/token
func (h *Handler) SetToken(w http.ResponseWriter, r *http.Request) {
	var req SetTokenRequestDTO
	if err := decode(r, &req); err != nil || req.Token == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.SetToken(r.Context(), req.Token); err != nil {
		handleError(w, err)
		return
	}
	h.GetSession(w, r)
}

// PUT /api/v1/session/admin
func (h *Handler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	var req session.AdminProfile
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.Auth.SetAdmin(r.Context(), req); err != nil {
		handleError(w, err)
		return
	}
	h.GetSession(w, r)
}

// DELETE /api/v1/session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Logout(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/toasts
func (h *Handler) DrainToasts(w http.ResponseWriter, r *http.Request) {
	toasts := sessionFrom(r.Context()).Toasts.Drain()
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	respondJSON(w, http.StatusOK, toasts)
}
