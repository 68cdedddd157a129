package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"hutang/internal/money"
	"hutang/internal/services"
	"hutang/internal/validator"

	"go.uber.org/zap"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool                   `json:"success"`
	Data    any                    `json:"data,omitempty"`
	Message string                 `json:"message"`
	Error   string                 `json:"error,omitempty"`
	Errors  []validator.FieldError `json:"errors,omitempty"`
}

var errEmptyBody = errors.New("request body is empty")

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondSuccess(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Message: message})
}

func respondInternal(w http.ResponseWriter, message string, err error) {
	zap.L().Error(message, zap.Error(err))
	respondJSON(w, http.StatusInternalServerError, envelope{Message: message, Error: err.Error()})
}

// respondInvalid answers 400 for failed validation. A missing required field
// is reported with requiredMessage, anything else with the per-field summary.
func respondInvalid(w http.ResponseWriter, errs []validator.FieldError, requiredMessage string) {
	message := validator.Summary(errs)
	for _, fe := range errs {
		if fe.Type == "required" || fe.Type == "notblank" {
			message = requiredMessage
			break
		}
	}
	respondJSON(w, http.StatusBadRequest, envelope{Message: message, Errors: errs})
}

func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// respondDecodeError answers 400 for a body that could not be decoded. An
// amount that is not a number is reported like a missing amount.
func respondDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, money.ErrInvalidAmount) || errors.Is(err, money.ErrTooManyDecimals) {
		respondError(w, http.StatusBadRequest, amountMessage)
		return
	}
	respondJSON(w, http.StatusBadRequest, envelope{Message: "Invalid request body", Error: err.Error()})
}

const amountMessage = "Amount is required and must be greater than 0"

// respondServiceError maps service sentinels to status codes. Anything not
// recognised is a 500 carrying fallback as its message.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrHutangNotFound):
		respondError(w, http.StatusNotFound, "Hutang not found")
	case errors.Is(err, services.ErrDebtorNotFound):
		respondError(w, http.StatusNotFound, "Debtor not found")
	case errors.Is(err, services.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, amountMessage)
	case errors.Is(err, services.ErrPaymentExceedsRemaining):
		respondError(w, http.StatusBadRequest, "Payment amount exceeds remaining amount")
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidDescription),
		errors.Is(err, services.ErrInvalidDueDate),
		errors.Is(err, services.ErrAmountBelowPaid):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateUser):
		respondError(w, http.StatusConflict, "User already exists with this email or username")
	default:
		respondInternal(w, fallback, err)
	}
}
