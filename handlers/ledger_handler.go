package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"dayScoreAPI/internal/activity"
	"dayScoreAPI/internal/ledger"
	"dayScoreAPI/middleware"
	"dayScoreAPI/services"
)

type LedgerHandler struct {
	ledgerService *services.LedgerService
	timerService  *services.TimerService
}

func NewLedgerHandler(ledgerService *services.LedgerService, timerService *services.TimerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		timerService:  timerService,
	}
}

// mutationResponse pairs the mutation outcome with the refreshed display
// state so the client re-renders from a single round trip.
type mutationResponse struct {
	*ledger.MutationResult
	State *ledger.ViewState `json:"state"`
}

func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	respondWithJSON(w, http.StatusOK, h.viewState(ctx))
}

func (h *LedgerHandler) CompleteActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]

	result, err := h.ledgerService.CompleteOccurrence(ctx, id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	recordMutation("complete", result)
	respondWithJSON(w, http.StatusOK, &mutationResponse{result, h.viewState(ctx)})
}

func (h *LedgerHandler) UncompleteActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]

	result, err := h.ledgerService.UncompleteOccurrence(ctx, id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	recordMutation("uncomplete", result)
	respondWithJSON(w, http.StatusOK, &mutationResponse{result, h.viewState(ctx)})
}

func (h *LedgerHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := mux.Vars(r)["id"]

	result, err := h.ledgerService.LogActivity(ctx, id)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	recordMutation("log_activity", result)
	respondWithJSON(w, http.StatusOK, &mutationResponse{result, h.viewState(ctx)})
}

func (h *LedgerHandler) LogPoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req activity.LogPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.ledgerService.LogPoints(ctx, req.Delta)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	recordMutation("log_points", result)
	respondWithJSON(w, http.StatusOK, &mutationResponse{result, h.viewState(ctx)})
}

// ResetPeriod clears the current period. The client confirms with the user
// first and signals that with confirm=true; without it the reset is
// rejected.
func (h *LedgerHandler) ResetPeriod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if r.URL.Query().Get("confirm") != "true" {
		respondWithError(w, http.StatusBadRequest, "Reset must be confirmed with confirm=true")
		return
	}

	result := h.ledgerService.ResetPeriod(ctx)

	recordMutation("reset_period", result)
	respondWithJSON(w, http.StatusOK, &mutationResponse{result, h.viewState(ctx)})
}

func (h *LedgerHandler) viewState(ctx context.Context) *ledger.ViewState {
	return h.ledgerService.View(ctx, h.timerService.Snapshot())
}

func recordMutation(operation string, result *ledger.MutationResult) {
	middleware.LedgerMutations.WithLabelValues(operation).Inc()
	middleware.TotalPointsGauge.Set(float64(result.TotalPoints))
	if result.StatusChanged {
		middleware.StatusChanges.Inc()
	}
}

// statusForError maps service errors onto HTTP codes: bad input is 400,
// unknown ids 404, invalid-state no-ops 409.
func statusForError(err error) int {
	switch {
	case errors.Is(err, activity.ErrNameRequired),
		errors.Is(err, activity.ErrInvalidKind):
		return http.StatusBadRequest
	case errors.Is(err, activity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, activity.ErrAlreadyCompleted),
		errors.Is(err, activity.ErrNotCompleted),
		errors.Is(err, activity.ErrNotOccurrence),
		errors.Is(err, activity.ErrNotHourly),
		errors.Is(err, activity.ErrTimerRunning),
		errors.Is(err, activity.ErrTimerNotRunning),
		errors.Is(err, activity.ErrCatalogLocked),
		errors.Is(err, activity.ErrCatalogOnly),
		errors.Is(err, activity.ErrCustomOnly):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
