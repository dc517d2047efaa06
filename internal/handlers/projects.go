package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/store"
	"github.com/nicunursekatie/adhd-planner/internal/validation"
)

// ProjectHandler serves project CRUD.
type ProjectHandler struct {
	sessions *store.Manager
}

// NewProjectHandler creates a project handler.
func NewProjectHandler(sessions *store.Manager) *ProjectHandler {
	return &ProjectHandler{sessions: sessions}
}

// RegisterRoutes registers project routes under the /projects prefix.
func (h *ProjectHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListProjects).Methods("GET")
	r.HandleFunc("", h.CreateProject).Methods("POST")
	r.HandleFunc("/{id}", h.GetProject).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateProject).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteProject).Methods("DELETE")
}

// ProjectRequest is the create/patch payload for projects.
type ProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Color       string `json:"color" validate:"max=32"`
}

// ListProjects lists the owner's projects.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, st.ListProjects())
}

// CreateProject creates a project.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req ProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	created, err := st.AddProject(r.Context(), &models.Project{
		Name:        validation.SanitizeText(req.Name),
		Description: validation.SanitizeText(req.Description),
		Color:       req.Color,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetProject returns one project.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	project, found := st.GetProject(mux.Vars(r)["id"])
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// UpdateProject replaces a project's editable fields.
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	current, found := st.GetProject(mux.Vars(r)["id"])
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return
	}

	var req ProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	current.Name = validation.SanitizeText(req.Name)
	current.Description = validation.SanitizeText(req.Description)
	current.Color = req.Color

	updated, err := st.UpdateProject(r.Context(), current)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteProject deletes a project. Tasks keep their project reference;
// views skip ids that no longer resolve.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	if err := st.DeleteProject(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// CategoryHandler serves category CRUD.
type CategoryHandler struct {
	sessions *store.Manager
}

// NewCategoryHandler creates a category handler.
func NewCategoryHandler(sessions *store.Manager) *CategoryHandler {
	return &CategoryHandler{sessions: sessions}
}

// RegisterRoutes registers category routes under the /categories prefix.
func (h *CategoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCategories).Methods("GET")
	r.HandleFunc("", h.CreateCategory).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateCategory).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteCategory).Methods("DELETE")
}

// CategoryRequest is the create/patch payload for categories.
type CategoryRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Color string `json:"color" validate:"max=32"`
}

// ListCategories lists the owner's categories.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, st.ListCategories())
}

// CreateCategory creates a category.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	created, err := st.AddCategory(r.Context(), &models.Category{
		Name:  validation.SanitizeText(req.Name),
		Color: req.Color,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// UpdateCategory replaces a category's editable fields.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, &req) {
		return
	}

	updated, err := st.UpdateCategory(r.Context(), &models.Category{
		ID:    mux.Vars(r)["id"],
		Name:  validation.SanitizeText(req.Name),
		Color: req.Color,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteCategory deletes a category. Task references are left in place
// and skipped by views.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	st, ok := sessionFromRequest(w, r, h.sessions)
	if !ok {
		return
	}

	if err := st.DeleteCategory(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
