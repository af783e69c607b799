package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"dayScoreAPI/services"
)

type TimerHandler struct {
	ledgerService *services.LedgerService
	timerService  *services.TimerService
}

func NewTimerHandler(ledgerService *services.LedgerService, timerService *services.TimerService) *TimerHandler {
	return &TimerHandler{
		ledgerService: ledgerService,
		timerService:  timerService,
	}
}

func (h *TimerHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]

	timer, err := h.timerService.Start(ctx, id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, timer)
}

// GetTimer is the display-refresh tick: it reports current accrual without
// touching the score. Clients poll it at whatever cadence they like.
func (h *TimerHandler) GetTimer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	view, err := h.timerService.Tick(id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *TimerHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]

	result, err := h.timerService.Stop(ctx, id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	recordMutation("timer_stop", result)
	respondWithJSON(w, http.StatusOK, &mutationResponse{
		MutationResult: result,
		State:          h.ledgerService.View(ctx, h.timerService.Snapshot()),
	})
}
