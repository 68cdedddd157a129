package handlers

import (
	"net/http"

	"hutang/internal/middleware"
	"hutang/internal/money"
	"hutang/internal/services"
	"hutang/internal/validator"

	"github.com/go-chi/chi/v5"
)

type createHutangRequest struct {
	Description string       `json:"description" validate:"notblank,max=255"`
	Amount      money.Amount `json:"amount" validate:"gt=0"`
	DueDate     string       `json:"dueDate" validate:"notblank,date"`
	DebtorEmail string       `json:"debtorEmail" validate:"notblank,email"`
	Notes       *string      `json:"notes" validate:"omitempty,max=1000"`
}

type updateHutangRequest struct {
	Description *string       `json:"description" validate:"omitempty,max=255"`
	Amount      *money.Amount `json:"amount"`
	DueDate     *string       `json:"dueDate" validate:"omitempty,date"`
	Notes       *string       `json:"notes" validate:"omitempty,max=1000"`
	Status      *string       `json:"status" validate:"omitempty,oneof=pending overdue paid"`
	DebtorEmail *string       `json:"debtorEmail" validate:"omitempty,email"`
}

type paymentRequest struct {
	Amount money.Amount `json:"amount" validate:"gt=0"`
	Notes  *string      `json:"notes" validate:"omitempty,max=1000"`
}

func (h *Handler) ListHutangs(w http.ResponseWriter, r *http.Request) {
	views, err := h.hutangs.List(r.Context())
	if err != nil {
		respondInternal(w, "Error retrieving hutangs", err)
		return
	}
	respondSuccess(w, http.StatusOK, "Hutangs retrieved successfully", views)
}

func (h *Handler) GetHutang(w http.ResponseWriter, r *http.Request) {
	view, err := h.hutangs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "Error retrieving hutang")
		return
	}
	respondSuccess(w, http.StatusOK, "Hutang retrieved successfully", view)
}

func (h *Handler) CreateHutang(w http.ResponseWriter, r *http.Request) {
	var req createHutangRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if errs := validator.Struct(req); errs != nil {
		respondInvalid(w, errs, "Description, amount, dueDate, and debtorEmail are required")
		return
	}
	dueDate, _ := validator.ParseDate(req.DueDate)
	userID, _ := middleware.UserIDFromContext(r.Context())
	view, err := h.hutangs.Create(r.Context(), services.CreateHutangInput{
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     dueDate,
		DebtorEmail: req.DebtorEmail,
		Notes:       req.Notes,
		CreatedBy:   userID,
	})
	if err != nil {
		respondServiceError(w, err, "Error creating hutang")
		return
	}
	respondSuccess(w, http.StatusCreated, "Hutang created successfully", view)
}

func (h *Handler) UpdateHutang(w http.ResponseWriter, r *http.Request) {
	var req updateHutangRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if errs := validator.Struct(req); errs != nil {
		respondInvalid(w, errs, "Invalid hutang update")
		return
	}
	input := services.UpdateHutangInput{
		Description: req.Description,
		Amount:      req.Amount,
		Notes:       req.Notes,
		Status:      req.Status,
		DebtorEmail: req.DebtorEmail,
	}
	if req.DueDate != nil {
		dueDate, err := validator.ParseDate(*req.DueDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "dueDate: must be an RFC3339 timestamp or YYYY-MM-DD date")
			return
		}
		input.DueDate = &dueDate
	}
	view, err := h.hutangs.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		respondServiceError(w, err, "Error updating hutang")
		return
	}
	respondSuccess(w, http.StatusOK, "Hutang updated successfully", view)
}

func (h *Handler) DeleteHutang(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.hutangs.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, "Error deleting hutang")
		return
	}
	respondSuccess(w, http.StatusOK, "Hutang deleted successfully", map[string]string{"id": id})
}

func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	hutangID := chi.URLParam(r, "id")
	if _, err := h.hutangs.Get(r.Context(), hutangID); err != nil {
		respondServiceError(w, err, "Error adding payment")
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if errs := validator.Struct(req); errs != nil {
		if hasAmountError(errs) {
			respondError(w, http.StatusBadRequest, amountMessage)
			return
		}
		respondInvalid(w, errs, amountMessage)
		return
	}
	view, err := h.hutangs.ApplyPayment(r.Context(), hutangID, req.Amount, req.Notes)
	if err != nil {
		respondServiceError(w, err, "Error adding payment")
		return
	}
	respondSuccess(w, http.StatusCreated, "Payment added successfully", view)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.hutangs.Summary(r.Context())
	if err != nil {
		respondInternal(w, "Error retrieving summary", err)
		return
	}
	respondSuccess(w, http.StatusOK, "Summary retrieved successfully", summary)
}

func hasAmountError(errs []validator.FieldError) bool {
	for _, fe := range errs {
		if fe.Field == "amount" {
			return true
		}
	}
	return false
}
