package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"dayScoreAPI/internal/activity"
	"dayScoreAPI/services"
)

type ActivityHandler struct {
	ledgerService *services.LedgerService
	timerService  *services.TimerService
}

func NewActivityHandler(ledgerService *services.LedgerService, timerService *services.TimerService) *ActivityHandler {
	return &ActivityHandler{
		ledgerService: ledgerService,
		timerService:  timerService,
	}
}

func (h *ActivityHandler) AddActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req activity.AddActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	def, err := h.ledgerService.AddActivity(ctx, &req)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, def)
}

// DeleteActivity removes a user-defined activity. A running timer for the
// activity is cancelled first; whatever it had accrued is forfeited, never
// credited.
func (h *ActivityHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]

	if err := h.ledgerService.DeleteActivity(ctx, id); err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	if h.timerService.Cancel(id) {
		log.Printf("ActivityHandler: cancelled running timer for deleted activity %s", id)
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
