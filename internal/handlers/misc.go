package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/store"
	"github.com/nicunursekatie/adhd-planner/internal/validation"
)

// MiscHandler serves the small per-owner collections: settings, work
// schedules, and journal entries.
type MiscHandler struct {
	sessions *store.Manager
}

// NewMiscHandler creates the handler.
func NewMiscHandler(sessions *store.Manager) *MiscHandler {
	return &MiscHandler{sessions: sessions}
}

// RegisterRoutes registers routes directly on the API router.
func (h *MiscHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/settings", h.SaveSettings).Methods("PUT")
	r.HandleFunc("/schedules", h.ListSchedules).Methods("GET")
	r.HandleFunc("/schedules", h.SaveSchedule).Methods("POST")
	r.HandleFunc("/schedules/{id}", h.SaveSchedule).Methods("PUT")
	r.HandleFunc("/schedules/{id}", h.DeleteSchedule).Methods("DELETE")
	r.HandleFunc("/journal", h.ListJournal).Methods("GET")
	r.HandleFunc("/journal", h.CreateJournalEntry).Methods("POST")
	r.HandleFunc("/journal/{id}", h.UpdateJournalEntry).Methods("PATCH")
	r.HandleFunc("/journal/{id}", h.DeleteJournalEntry).Methods("DELETE")
}

// SettingsRequest is the settings upsert payload.
type SettingsRequest struct {
	Theme          string `json:"theme" validate:"omitempty,oneof=light dark system"`
	TimeFormat     string `json:"time_format" validate:"omitempty,oneof=12h 24h"`
	FirstDayOfWeek string `json:"first_day_of_week" validate:"omitempty,max=16"`
	ShowCompleted  bool   `json:"show_completed"`
}

// GetSettings returns the owner's settings, defaults when never saved.
func (h *MiscHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, st.GetSettings())
}

// SaveSettings upserts the owner's settings record.
func (h *MiscHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req SettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	saved, err := st.SaveSettings(r.Context(), &models.Settings{
		Theme:          req.Theme,
		TimeFormat:     req.TimeFormat,
		FirstDayOfWeek: req.FirstDayOfWeek,
		ShowCompleted:  req.ShowCompleted,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// ScheduleRequest is the work schedule upsert payload.
type ScheduleRequest struct {
	Name   string             `json:"name" validate:"max=200"`
	Shifts []models.WorkShift `json:"shifts" validate:"required,min=1,dive"`
}

// ListSchedules lists the owner's work schedules.
func (h *MiscHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, st.ListWorkSchedules())
}

// SaveSchedule creates or replaces a work schedule. POST creates; PUT
// with an id upserts that id.
func (h *MiscHandler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req ScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	saved, err := st.SaveWorkSchedule(r.Context(), &models.WorkSchedule{
		ID:     mux.Vars(r)["id"],
		Name:   validation.SanitizeText(req.Name),
		Shifts: req.Shifts,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// DeleteSchedule removes a work schedule.
func (h *MiscHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	if err := st.DeleteWorkSchedule(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// JournalRequest is the journal entry payload.
type JournalRequest struct {
	Date    string `json:"date" validate:"required,date_only"`
	Content string `json:"content" validate:"required,min=1,max=20000"`
	Mood    string `json:"mood" validate:"max=64"`
}

// ListJournal lists journal entries newest first.
func (h *MiscHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, st.ListJournalEntries())
}

// CreateJournalEntry records a new entry.
func (h *MiscHandler) CreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req JournalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	created, err := st.AddJournalEntry(r.Context(), &models.JournalEntry{
		Date:    req.Date,
		Content: validation.SanitizeText(req.Content),
		Mood:    req.Mood,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateJournalEntry replaces an entry's content.
func (h *MiscHandler) UpdateJournalEntry(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req JournalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	updated, err := st.UpdateJournalEntry(r.Context(), &models.JournalEntry{
		ID:      mux.Vars(r)["id"],
		Date:    req.Date,
		Content: validation.SanitizeText(req.Content),
		Mood:    req.Mood,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteJournalEntry removes an entry.
func (h *MiscHandler) DeleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	if err := st.DeleteJournalEntry(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
