package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nicunursekatie/adhd-planner/internal/request"
	"github.com/nicunursekatie/adhd-planner/internal/services/auth"
)

// AuthHandler serves the login redirect and the current-owner endpoint.
// Token exchange happens on the frontend with PKCE; the backend only
// hands out the authorization URL and validates bearer tokens.
type AuthHandler struct {
	login *auth.LoginClient
}

// NewAuthHandler creates the handler. login may be nil when no identity
// provider is configured; the login endpoint then reports that.
func NewAuthHandler(login *auth.LoginClient) *AuthHandler {
	return &AuthHandler{login: login}
}

// RegisterPublicRoutes registers routes that skip auth middleware.
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods("GET")
}

// RegisterRoutes registers routes behind auth middleware.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.Me).Methods("GET")
}

// Login returns the authorization URL for the frontend's login flow.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.login == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Login is not configured")
		return
	}
	state := r.URL.Query().Get("state")
	respondJSON(w, http.StatusOK, map[string]any{
		"authorization_url": h.login.AuthCodeURL(state),
		"client_id":         h.login.ClientID(),
		"redirect_uri":      h.login.RedirectURL(),
	})
}

// Me returns the authenticated owner.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	owner := request.OwnerFromContext(r)
	if owner == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return
	}
	respondJSON(w, http.StatusOK, owner)
}
