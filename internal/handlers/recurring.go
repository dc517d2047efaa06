package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/queue"
	"github.com/nicunursekatie/adhd-planner/internal/recurrence"
	"github.com/nicunursekatie/adhd-planner/internal/request"
	"github.com/nicunursekatie/adhd-planner/internal/store"
	"github.com/nicunursekatie/adhd-planner/internal/validation"
)

// RecurringHandler serves recurring task templates. Generation runs
// through the job queue when one is configured, so the worker owns the
// write; without a queue it happens inline.
type RecurringHandler struct {
	sessions *store.Manager
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewRecurringHandler creates a recurring task handler. jobQueue may be
// nil.
func NewRecurringHandler(sessions *store.Manager, jobQueue queue.JobQueue, logger *zap.Logger) *RecurringHandler {
	return &RecurringHandler{sessions: sessions, jobQueue: jobQueue, logger: logger}
}

// RegisterRoutes registers routes under the /recurring prefix.
func (h *RecurringHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListRecurring).Methods("GET")
	r.HandleFunc("", h.CreateRecurring).Methods("POST")
	r.HandleFunc("/{id}", h.GetRecurring).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateRecurring).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteRecurring).Methods("DELETE")
	r.HandleFunc("/{id}/generate", h.Generate).Methods("POST")
}

// RecurringRequest is the create/patch payload for templates.
type RecurringRequest struct {
	Title            string             `json:"title" validate:"required,min=1,max=500"`
	Description      string             `json:"description" validate:"max=10000"`
	Pattern          recurrence.Pattern `json:"pattern"`
	StartDate        *string            `json:"start_date,omitempty" validate:"omitempty,date_only"`
	Active           *bool              `json:"active,omitempty"`
	ProjectID        string             `json:"project_id,omitempty"`
	CategoryIDs      []string           `json:"category_ids,omitempty"`
	Priority         string             `json:"priority,omitempty" validate:"omitempty,priority"`
	EnergyRequired   string             `json:"energy_required,omitempty" validate:"omitempty,energy_level"`
	EstimatedMinutes int                `json:"estimated_minutes,omitempty" validate:"omitempty,min=0"`
}

// ListRecurring lists the owner's templates.
func (h *RecurringHandler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, st.ListRecurringTasks())
}

// CreateRecurring creates a template. NextDue is derived from the
// pattern when not supplied.
func (h *RecurringHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req RecurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}
	if err := req.Pattern.Validate(); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	created, err := st.AddRecurringTask(r.Context(), &models.RecurringTask{
		Title:            validation.SanitizeText(req.Title),
		Description:      validation.SanitizeText(req.Description),
		Pattern:          req.Pattern,
		StartDate:        req.StartDate,
		Active:           active,
		ProjectID:        req.ProjectID,
		CategoryIDs:      req.CategoryIDs,
		Priority:         models.Priority(req.Priority),
		EnergyRequired:   models.EnergyLevel(req.EnergyRequired),
		EstimatedMinutes: req.EstimatedMinutes,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetRecurring returns one template.
func (h *RecurringHandler) GetRecurring(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	rt, found := st.GetRecurringTask(mux.Vars(r)["id"])
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Recurring task not found")
		return
	}
	respondJSON(w, http.StatusOK, rt)
}

// UpdateRecurring replaces a template's editable fields.
func (h *RecurringHandler) UpdateRecurring(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	current, found := st.GetRecurringTask(mux.Vars(r)["id"])
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Recurring task not found")
		return
	}

	var req RecurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}
	if err := req.Pattern.Validate(); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	current.Title = validation.SanitizeText(req.Title)
	current.Description = validation.SanitizeText(req.Description)
	current.Pattern = req.Pattern
	current.StartDate = req.StartDate
	if req.Active != nil {
		current.Active = *req.Active
	}
	current.ProjectID = req.ProjectID
	current.CategoryIDs = req.CategoryIDs
	current.Priority = models.Priority(req.Priority)
	current.EnergyRequired = models.EnergyLevel(req.EnergyRequired)
	current.EstimatedMinutes = req.EstimatedMinutes

	updated, err := st.UpdateRecurringTask(r.Context(), current)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteRecurring deletes a template. Tasks already generated from it
// are untouched.
func (h *RecurringHandler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	if err := st.DeleteRecurringTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// Generate stamps a task out of the template. With a queue configured
// the work is handed to the worker and 202 returned; otherwise the task
// is generated inline.
func (h *RecurringHandler) Generate(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if _, found := st.GetRecurringTask(id); !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Recurring task not found")
		return
	}

	if h.jobQueue != nil {
		owner := request.OwnerFromContext(r)
		job := queue.NewJob(queue.JobTypeGenerateRecurring, owner.ID, id)
		if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
			h.logger.Warn("generation_enqueue_failed", zap.String("recurring_task_id", id), zap.Error(err))
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to enqueue generation")
			return
		}
		respondJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID})
		return
	}

	task, err := st.GenerateTaskFromRecurring(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}
