package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"dayScoreAPI/services"
)

type SettingsHandler struct {
	ledgerService *services.LedgerService
}

func NewSettingsHandler(ledgerService *services.LedgerService) *SettingsHandler {
	return &SettingsHandler{ledgerService: ledgerService}
}

type settingsPayload struct {
	DarkMode bool `json:"dark_mode"`
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	darkMode, err := h.ledgerService.DarkMode(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}

	respondWithJSON(w, http.StatusOK, settingsPayload{DarkMode: darkMode})
}

func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.ledgerService.SetDarkMode(ctx, req.DarkMode); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to store settings")
		return
	}

	respondWithJSON(w, http.StatusOK, req)
}
