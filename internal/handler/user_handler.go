package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"appointment-booking-api/internal/model"
)

type createUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type userResponse struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	u, err := h.svc.CreateUser(r.Context(), req.Email, role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email, Role: u.Role})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": fmt.Sprintf("User %s deleted", id)})
}
