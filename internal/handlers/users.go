package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListUsers returns every account with what it currently owes.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	debtors, err := h.hutangs.ListDebtors(r.Context())
	if err != nil {
		respondInternal(w, "Error retrieving users", err)
		return
	}
	respondSuccess(w, http.StatusOK, "Users retrieved successfully", debtors)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	detail, err := h.hutangs.GetDebtor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "Error retrieving user")
		return
	}
	respondSuccess(w, http.StatusOK, "User retrieved successfully", detail)
}

// CreateUser is disabled; accounts are created through registration.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Creating users is disabled, use /api/auth/register")
}
