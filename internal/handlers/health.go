package handlers

import (
	"net/http"
	"time"
)

type healthData struct {
	Timestamp time.Time `json:"timestamp"`
	Store     string    `json:"store"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "API is running", healthData{
		Timestamp: time.Now().UTC(),
		Store:     h.cfg.StoreDriver,
	})
}
