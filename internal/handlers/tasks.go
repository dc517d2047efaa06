package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/services/ai"
	"github.com/nicunursekatie/adhd-planner/internal/store"
	"github.com/nicunursekatie/adhd-planner/internal/validation"
)

const (
	// MaxTitleLength caps task titles.
	MaxTitleLength = 500
	// MaxDescriptionLength caps task descriptions.
	MaxDescriptionLength = 10000
)

// TaskHandler serves the task CRUD, graph, bulk, and undo endpoints.
type TaskHandler struct {
	sessions  *store.Manager
	generator ai.TextGenerator
	logger    *zap.Logger
}

// NewTaskHandler creates a task handler. generator may be nil; the
// breakdown endpoint then reports the feature as unavailable.
func NewTaskHandler(sessions *store.Manager, generator ai.TextGenerator, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{sessions: sessions, generator: generator, logger: logger}
}

// RegisterRoutes registers task routes. The router is expected to carry
// the /tasks prefix already.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/bulk", h.Bulk).Methods("POST")
	r.HandleFunc("/undo", h.UndoAvailable).Methods("GET")
	r.HandleFunc("/undo", h.Undo).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/{id}/reopen", h.ReopenTask).Methods("POST")
	r.HandleFunc("/{id}/can-complete", h.CanComplete).Methods("GET")
	r.HandleFunc("/{id}/dependencies", h.AddDependency).Methods("POST")
	r.HandleFunc("/{id}/dependencies/{depID}", h.RemoveDependency).Methods("DELETE")
	r.HandleFunc("/{id}/parent", h.MoveUnderParent).Methods("PUT")
	r.HandleFunc("/{id}/archive", h.ArchiveTask).Methods("POST")
	r.HandleFunc("/{id}/project", h.MoveToProject).Methods("PUT")
	r.HandleFunc("/{id}/categories", h.AssignCategories).Methods("POST")
	r.HandleFunc("/{id}/breakdown", h.Breakdown).Methods("POST")
}

// CreateTaskRequest is the create payload.
type CreateTaskRequest struct {
	Title            string   `json:"title" validate:"required,min=1,max=500"`
	Description      string   `json:"description" validate:"max=10000"`
	DueDate          *string  `json:"due_date,omitempty" validate:"omitempty,date_only"`
	StartDate        *string  `json:"start_date,omitempty" validate:"omitempty,date_only"`
	ParentID         string   `json:"parent_task_id,omitempty"`
	ProjectID        string   `json:"project_id,omitempty"`
	CategoryIDs      []string `json:"category_ids,omitempty"`
	Priority         string   `json:"priority,omitempty" validate:"omitempty,priority"`
	Urgency          string   `json:"urgency,omitempty" validate:"omitempty,urgency"`
	EmotionalWeight  string   `json:"emotional_weight,omitempty" validate:"omitempty,emotional_weight"`
	EnergyRequired   string   `json:"energy_required,omitempty" validate:"omitempty,energy_level"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty" validate:"omitempty,min=0"`
}

// UpdateTaskRequest is the patch payload. Structural fields (parent,
// dependencies) are not patchable here; they have their own endpoints.
type UpdateTaskRequest struct {
	Title              *string  `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description        *string  `json:"description,omitempty" validate:"omitempty,max=10000"`
	DueDate            *string  `json:"due_date,omitempty" validate:"omitempty,date_only"`
	StartDate          *string  `json:"start_date,omitempty" validate:"omitempty,date_only"`
	Priority           *string  `json:"priority,omitempty" validate:"omitempty,priority"`
	Urgency            *string  `json:"urgency,omitempty" validate:"omitempty,urgency"`
	EmotionalWeight    *string  `json:"emotional_weight,omitempty" validate:"omitempty,emotional_weight"`
	EnergyRequired     *string  `json:"energy_required,omitempty" validate:"omitempty,energy_level"`
	EstimatedMinutes   *int     `json:"estimated_minutes,omitempty" validate:"omitempty,min=0"`
	ActualMinutesSpent *int     `json:"actual_minutes_spent,omitempty" validate:"omitempty,min=0"`
	ProjectID          *string  `json:"project_id,omitempty"`
	CategoryIDs        []string `json:"category_ids,omitempty"`
}

// ListTasks lists the owner's tasks, optionally filtered by project,
// category, archived, or completed state.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	tasks := st.ListTasks()

	q := r.URL.Query()
	projectID := q.Get("project_id")
	categoryID := q.Get("category_id")
	var archived, completed *bool
	if v := q.Get("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid archived filter")
			return
		}
		archived = &b
	}
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid completed filter")
			return
		}
		completed = &b
	}

	filtered := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		if categoryID != "" && !containsString(t.CategoryIDs, categoryID) {
			continue
		}
		if archived != nil && t.Archived != *archived {
			continue
		}
		if completed != nil && t.Completed != *completed {
			continue
		}
		filtered = append(filtered, t)
	}

	respondJSON(w, http.StatusOK, filtered)
}

// CreateTask creates a task, optionally attached under a parent.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	req.Description = validation.SanitizeText(req.Description)

	task := &models.Task{
		Title:            req.Title,
		Description:      req.Description,
		DueDate:          req.DueDate,
		StartDate:        req.StartDate,
		ParentID:         req.ParentID,
		ProjectID:        req.ProjectID,
		CategoryIDs:      req.CategoryIDs,
		Priority:         models.Priority(req.Priority),
		Urgency:          models.Urgency(req.Urgency),
		EmotionalWeight:  models.EmotionalWeight(req.EmotionalWeight),
		EnergyRequired:   models.EnergyLevel(req.EnergyRequired),
		EstimatedMinutes: req.EstimatedMinutes,
	}

	created, err := st.AddTask(r.Context(), task)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetTask returns one task.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	task, found := st.GetTask(mux.Vars(r)["id"])
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTask patches content fields of a task.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	current, found := st.GetTask(mux.Vars(r)["id"])
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		if title == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
			return
		}
		current.Title = title
	}
	if req.Description != nil {
		current.Description = validation.SanitizeText(*req.Description)
	}
	if req.DueDate != nil {
		current.DueDate = req.DueDate
	}
	if req.StartDate != nil {
		current.StartDate = req.StartDate
	}
	if req.Priority != nil {
		current.Priority = models.Priority(*req.Priority)
	}
	if req.Urgency != nil {
		current.Urgency = models.Urgency(*req.Urgency)
	}
	if req.EmotionalWeight != nil {
		current.EmotionalWeight = models.EmotionalWeight(*req.EmotionalWeight)
	}
	if req.EnergyRequired != nil {
		current.EnergyRequired = models.EnergyLevel(*req.EnergyRequired)
	}
	if req.EstimatedMinutes != nil {
		current.EstimatedMinutes = *req.EstimatedMinutes
	}
	if req.ActualMinutesSpent != nil {
		current.ActualMinutesSpent = *req.ActualMinutesSpent
	}
	if req.ProjectID != nil {
		current.ProjectID = *req.ProjectID
	}
	if req.CategoryIDs != nil {
		current.CategoryIDs = req.CategoryIDs
	}

	updated, err := st.UpdateTask(r.Context(), current)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteTask deletes a task and its subtree. The deletion can be undone
// through POST /tasks/undo within the undo window.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	if err := st.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// CompleteTask marks a task complete, honoring start-date and
// dependency gating.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	task, err := st.CompleteTask(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// ReopenTask clears a task's completed state.
func (h *TaskHandler) ReopenTask(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	task, err := st.ReopenTask(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// CanComplete reports whether a task's dependencies are all complete.
func (h *TaskHandler) CanComplete(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	respondJSON(w, http.StatusOK, map[string]any{
		"task_id":      id,
		"can_complete": st.CanCompleteTask(id),
	})
}

// DependencyRequest names the task the subject depends on.
type DependencyRequest struct {
	DependsOnID string `json:"depends_on_id" validate:"required"`
}

// AddDependency links a dependency edge.
func (h *TaskHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req DependencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	if err := st.AddDependency(r.Context(), mux.Vars(r)["id"], req.DependsOnID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"linked": true})
}

// RemoveDependency unlinks a dependency edge.
func (h *TaskHandler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	if err := st.RemoveDependency(r.Context(), vars["id"], vars["depID"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"linked": false})
}

// ParentRequest names the new parent; empty makes the task a root.
type ParentRequest struct {
	ParentID string `json:"parent_task_id"`
}

// MoveUnderParent reparents a task within the subtask tree.
func (h *TaskHandler) MoveUnderParent(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req ParentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := st.MoveUnderParent(r.Context(), mux.Vars(r)["id"], req.ParentID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"parent_task_id": req.ParentID})
}

// ArchiveRequest sets the archived flag.
type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

// ArchiveTask sets or clears a task's archived flag.
func (h *TaskHandler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req ArchiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := st.ArchiveTask(r.Context(), mux.Vars(r)["id"], req.Archived); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"archived": req.Archived})
}

// ProjectAssignRequest names the project; empty clears the assignment.
type ProjectAssignRequest struct {
	ProjectID string `json:"project_id"`
}

// MoveToProject assigns a task to a project.
func (h *TaskHandler) MoveToProject(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req ProjectAssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := st.MoveTaskToProject(r.Context(), mux.Vars(r)["id"], req.ProjectID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"project_id": req.ProjectID})
}

// CategoriesRequest lists category ids to add to a task.
type CategoriesRequest struct {
	CategoryIDs []string `json:"category_ids" validate:"required,min=1,dive,required"`
}

// AssignCategories adds categories to a task (union semantics).
func (h *TaskHandler) AssignCategories(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req CategoriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	if err := st.AssignCategories(r.Context(), mux.Vars(r)["id"], req.CategoryIDs); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"category_ids": req.CategoryIDs})
}

// Bulk applies one operation to a selection of tasks.
func (h *TaskHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req store.BulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	if err := st.ApplyBulk(r.Context(), req); err != nil {
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"applied": string(req.Op), "task_count": len(req.TaskIDs)})
}

// UndoAvailable reports whether a deletion is waiting in the undo buffer.
func (h *TaskHandler) UndoAvailable(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"available": st.HasRecentlyDeleted()})
}

// Undo restores the most recently deleted task if its undo window has
// not expired. data is null when there is nothing to restore.
func (h *TaskHandler) Undo(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	task, err := st.UndoDelete(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// BreakdownRequest tunes the AI breakdown. Materialize creates the
// suggestions as subtasks instead of only returning them.
type BreakdownRequest struct {
	Limit       int  `json:"limit,omitempty" validate:"omitempty,min=1,max=10"`
	Materialize bool `json:"materialize,omitempty"`
}

// BreakdownResponse carries the suggestions and, when materialized, the
// created subtasks.
type BreakdownResponse struct {
	Suggestions []string       `json:"suggestions"`
	Created     []*models.Task `json:"created,omitempty"`
}

// Breakdown asks the text generator to split a task into first steps.
func (h *TaskHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Task breakdown is not configured")
		return
	}
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req BreakdownRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	task, found := st.GetTask(id)
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	suggestions, err := h.generator.SuggestSubtasks(r.Context(), task.Title, task.Description, req.Limit)
	if err != nil {
		h.logger.Warn("breakdown_failed", zap.String("task_id", id), zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to generate suggestions")
		return
	}

	resp := BreakdownResponse{Suggestions: suggestions}
	if req.Materialize {
		for _, title := range suggestions {
			created, err := st.AddTask(r.Context(), &models.Task{
				Title:    title,
				ParentID: id,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}
			resp.Created = append(resp.Created, created)
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
