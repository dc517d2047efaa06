package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/gateway"
	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/request"
	"github.com/nicunursekatie/adhd-planner/internal/services/ai"
	"github.com/nicunursekatie/adhd-planner/internal/store"
)

const testOwner = "auth0|owner-1"

type fakeGenerator struct {
	suggestions []string
	err         error
}

func (f *fakeGenerator) SuggestSubtasks(ctx context.Context, title, notes string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestions, nil
}

var _ ai.TextGenerator = (*fakeGenerator)(nil)

// newTaskRouter builds a task handler over a fresh in-memory gateway.
func newTaskRouter(t *testing.T, generator ai.TextGenerator) (*mux.Router, *store.Manager) {
	t.Helper()
	gw, _ := gateway.NewMemory()
	sessions := store.NewManager(gw, zap.NewNop())
	t.Cleanup(sessions.Close)

	r := mux.NewRouter()
	h := NewTaskHandler(sessions, generator, zap.NewNop())
	h.RegisterRoutes(r.PathPrefix("/tasks").Subrouter())
	return r, sessions
}

// authedRequest builds a request with the test owner on the context.
func authedRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	ctx := request.WithOwner(req.Context(), &models.Owner{ID: testOwner})
	return req.WithContext(ctx)
}

// envelope decodes the response envelope's data field into dst.
func envelope(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success = false, body %s", resp.Data)
	}
	if dst != nil {
		if err := json.Unmarshal(resp.Data, dst); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func createTask(t *testing.T, r *mux.Router, payload map[string]any) *models.Task {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks", payload))
	if w.Code != http.StatusCreated {
		t.Fatalf("create task status = %d, body %s", w.Code, w.Body.String())
	}
	var task models.Task
	envelope(t, w, &task)
	return &task
}

func TestCreateAndGetTask(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	created := createTask(t, r, map[string]any{
		"title":    "  write the report  ",
		"priority": "high",
	})
	if created.ID == "" {
		t.Fatal("created task has no id")
	}
	if created.Title != "write the report" {
		t.Errorf("Title = %q, want sanitized", created.Title)
	}
	if created.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", created.Priority)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/tasks/"+created.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Task
	envelope(t, w, &got)
	if got.ID != created.ID {
		t.Errorf("got id %q, want %q", got.ID, created.ID)
	}
}

func TestCreateTaskRejectsInvalidPayloads(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	tests := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{"missing title", map[string]any{"description": "x"}, http.StatusBadRequest},
		{"bad priority", map[string]any{"title": "a", "priority": "critical"}, http.StatusBadRequest},
		{"bad date", map[string]any{"title": "a", "due_date": "someday"}, http.StatusBadRequest},
		{"whitespace title", map[string]any{"title": "   "}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, authedRequest(t, "POST", "/tasks", tt.payload))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d, body %s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestRequestsWithoutOwnerAreRejected(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	req := httptest.NewRequest("GET", "/tasks", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestCompletionGatedByDependencies(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	blocker := createTask(t, r, map[string]any{"title": "file taxes"})
	blocked := createTask(t, r, map[string]any{"title": "mail the return"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/"+blocked.ID+"/dependencies", map[string]any{
		"depends_on_id": blocker.ID,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("add dependency status = %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/"+blocked.ID+"/complete", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("complete blocked task status = %d, want 409", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/tasks/"+blocked.ID+"/can-complete", nil))
	var canResp struct {
		CanComplete bool `json:"can_complete"`
	}
	envelope(t, w, &canResp)
	if canResp.CanComplete {
		t.Error("can_complete = true while the blocker is open")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/"+blocker.ID+"/complete", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("complete blocker status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/"+blocked.ID+"/complete", nil))
	if w.Code != http.StatusOK {
		t.Errorf("complete unblocked task status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestDependencyCycleRejected(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	a := createTask(t, r, map[string]any{"title": "a"})
	b := createTask(t, r, map[string]any{"title": "b"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/"+a.ID+"/dependencies", map[string]any{"depends_on_id": b.ID}))
	if w.Code != http.StatusOK {
		t.Fatalf("first edge status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/"+b.ID+"/dependencies", map[string]any{"depends_on_id": a.ID}))
	if w.Code != http.StatusConflict {
		t.Errorf("cycle edge status = %d, want 409", w.Code)
	}
}

func TestDeleteThenUndoRestoresTask(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	task := createTask(t, r, map[string]any{"title": "impulse delete"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "DELETE", "/tasks/"+task.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/tasks/"+task.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/tasks/undo", nil))
	var avail struct {
		Available bool `json:"available"`
	}
	envelope(t, w, &avail)
	if !avail.Available {
		t.Error("available = false right after a delete")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/undo", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("undo status = %d", w.Code)
	}
	var restored models.Task
	envelope(t, w, &restored)
	if restored.ID != task.ID {
		t.Errorf("restored id = %q, want %q", restored.ID, task.ID)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/tasks/"+task.ID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("get after undo status = %d, want 200", w.Code)
	}
}

func TestBulkComplete(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		task := createTask(t, r, map[string]any{"title": fmt.Sprintf("task %d", i)})
		ids = append(ids, task.ID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/bulk", map[string]any{
		"op":       "complete",
		"task_ids": ids,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("bulk status = %d, body %s", w.Code, w.Body.String())
	}

	for _, id := range ids {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest(t, "GET", "/tasks/"+id, nil))
		var task models.Task
		envelope(t, w, &task)
		if !task.Completed {
			t.Errorf("task %s not completed", id)
		}
	}
}

func TestBreakdownMaterializesSubtasks(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{suggestions: []string{"find the forms", "fill in page one"}}
	r, _ := newTaskRouter(t, gen)

	parent := createTask(t, r, map[string]any{"title": "deal with paperwork"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/"+parent.ID+"/breakdown", map[string]any{
		"materialize": true,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("breakdown status = %d, body %s", w.Code, w.Body.String())
	}
	var resp BreakdownResponse
	envelope(t, w, &resp)
	if len(resp.Suggestions) != 2 || len(resp.Created) != 2 {
		t.Fatalf("suggestions = %d, created = %d, want 2 and 2", len(resp.Suggestions), len(resp.Created))
	}
	for _, sub := range resp.Created {
		if sub.ParentID != parent.ID {
			t.Errorf("subtask %s parent = %q, want %q", sub.ID, sub.ParentID, parent.ID)
		}
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/tasks/"+parent.ID, nil))
	var got models.Task
	envelope(t, w, &got)
	if len(got.Subtasks) != 2 {
		t.Errorf("parent Subtasks = %v, want 2 entries", got.Subtasks)
	}
}

func TestBreakdownUnavailableWithoutGenerator(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	task := createTask(t, r, map[string]any{"title": "anything"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "POST", "/tasks/"+task.ID+"/breakdown", map[string]any{}))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestListTasksFilters(t *testing.T) {
	t.Parallel()
	r, _ := newTaskRouter(t, nil)

	inProject := createTask(t, r, map[string]any{"title": "in project", "project_id": "proj-1"})
	createTask(t, r, map[string]any{"title": "no project"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, "GET", "/tasks?project_id=proj-1", nil))
	var tasks []*models.Task
	envelope(t, w, &tasks)
	if len(tasks) != 1 || tasks[0].ID != inProject.ID {
		t.Errorf("filtered list = %d tasks, want just %s", len(tasks), inProject.ID)
	}
}
