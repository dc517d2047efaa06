package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/gateway"
	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/store"
)

func newPlanRouter(t *testing.T) *mux.Router {
	t.Helper()
	gw, _ := gateway.NewMemory()
	sessions := store.NewManager(gw, zap.NewNop())
	t.Cleanup(sessions.Close)

	r := mux.NewRouter()
	NewPlanHandler(sessions).RegisterRoutes(r.PathPrefix("/plans").Subrouter())
	return r
}

func TestSaveAndGetPlan(t *testing.T) {
	t.Parallel()
	r := newPlanRouter(t)

	payload := map[string]any{
		"time_blocks": []map[string]any{
			{"start_time": "09:00", "end_time": "10:30", "title": "deep work"},
		},
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "PUT", "/plans/2026-08-28", payload))
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/plans/2026-08-28", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var plan models.DailyPlan
	envelope(t, w, &plan)
	if plan.Date != "2026-08-28" {
		t.Errorf("Date = %q", plan.Date)
	}
	if len(plan.TimeBlocks) != 1 || plan.TimeBlocks[0].Title != "deep work" {
		t.Errorf("TimeBlocks = %+v", plan.TimeBlocks)
	}
}

func TestPlanDateValidation(t *testing.T) {
	t.Parallel()
	r := newPlanRouter(t)

	for _, date := range []string{"08-28-2026", "tomorrow", "2026-13-01"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest(t, "GET", "/plans/"+date, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("date %q status = %d, want 400", date, w.Code)
		}
	}
}

func TestGetMissingPlan(t *testing.T) {
	t.Parallel()
	r := newPlanRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/plans/2026-01-01", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
