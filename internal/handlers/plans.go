package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/store"
	"github.com/nicunursekatie/adhd-planner/internal/validation"
)

// PlanHandler serves daily plan endpoints. Plans are addressed by
// calendar date, not by id.
type PlanHandler struct {
	sessions *store.Manager
}

// NewPlanHandler creates a plan handler.
func NewPlanHandler(sessions *store.Manager) *PlanHandler {
	return &PlanHandler{sessions: sessions}
}

// RegisterRoutes registers plan routes under the /plans prefix.
func (h *PlanHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPlans).Methods("GET")
	r.HandleFunc("/{date}", h.GetPlan).Methods("GET")
	r.HandleFunc("/{date}", h.SavePlan).Methods("PUT")
	r.HandleFunc("/{date}", h.DeletePlan).Methods("DELETE")
}

// SavePlanRequest replaces the plan's time blocks for one date.
type SavePlanRequest struct {
	TimeBlocks []models.TimeBlock `json:"time_blocks" validate:"required,dive"`
}

// ListPlans lists the owner's daily plans sorted by date.
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, st.ListDailyPlans())
}

// GetPlan returns the plan for one date.
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	date := mux.Vars(r)["date"]
	if err := validation.ValidateDate(date); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	plan, found := st.GetDailyPlan(date)
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No plan for that date")
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// SavePlan upserts the plan for one date.
func (h *PlanHandler) SavePlan(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	date := mux.Vars(r)["date"]
	if err := validation.ValidateDate(date); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	var req SavePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	saved, err := st.SaveDailyPlan(r.Context(), &models.DailyPlan{
		Date:       date,
		TimeBlocks: req.TimeBlocks,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// DeletePlan removes the plan for one date.
func (h *PlanHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	date := mux.Vars(r)["date"]
	if err := validation.ValidateDate(date); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if err := st.DeleteDailyPlan(r.Context(), date); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
