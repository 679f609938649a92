package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"habitflowAPI/internal/types/habit"
	"habitflowAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// fakeHabitService keeps habits in memory with the same toggle semantics as
// the real service.
type fakeHabitService struct {
	habits map[string]*habit.Habit
	order  []string
	nextID int64
}

func newFakeHabitService() *fakeHabitService {
	return &fakeHabitService{habits: map[string]*habit.Habit{}}
}

func (f *fakeHabitService) ListHabits(ctx context.Context) ([]*habit.Habit, error) {
	out := []*habit.Habit{}
	for _, id := range f.order {
		out = append(out, f.habits[id])
	}
	return out, nil
}

func (f *fakeHabitService) CreateHabit(ctx context.Context, req *habit.CreateHabitRequest) (*habit.Habit, error) {
	h := &habit.Habit{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		GoalDays:    req.GoalDays,
		CreatedAt:   time.Now(),
		Completions: []*habit.Completion{},
	}
	f.habits[h.ID] = h
	f.order = append(f.order, h.ID)
	return h, nil
}

func (f *fakeHabitService) DeleteHabit(ctx context.Context, habitID string) error {
	if _, ok := f.habits[habitID]; !ok {
		return services.ErrHabitNotFound
	}
	delete(f.habits, habitID)
	for i, id := range f.order {
		if id == habitID {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeHabitService) ToggleCompletion(ctx context.Context, habitID string, date time.Time) (*habit.Habit, error) {
	h, ok := f.habits[habitID]
	if !ok {
		return nil, services.ErrHabitNotFound
	}
	for i, c := range h.Completions {
		if c.CompletedDate.Equal(date) {
			h.Completions = append(h.Completions[:i], h.Completions[i+1:]...)
			return h, nil
		}
	}
	f.nextID++
	h.Completions = append(h.Completions, &habit.Completion{
		ID:            f.nextID,
		HabitID:       habitID,
		CompletedDate: date,
	})
	return h, nil
}

func (f *fakeHabitService) GetActivityCounts(ctx context.Context) (map[string]int, error) {
	activity := map[string]int{}
	for _, h := range f.habits {
		for _, c := range h.Completions {
			activity[c.CompletedDate.Format(habit.DateLayout)]++
		}
	}
	return activity, nil
}

func newTestRouter(svc HabitService) *mux.Router {
	h := NewHabitHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/habits/activity", h.GetActivity).Methods("GET")
	r.HandleFunc("/habits/", h.ListHabits).Methods("GET")
	r.HandleFunc("/habits/", h.CreateHabit).Methods("POST")
	r.HandleFunc("/habits/{habitID}", h.DeleteHabit).Methods("DELETE")
	r.HandleFunc("/habits/{habitID}/toggle", h.ToggleCompletion).Methods("POST")
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestCreateHabit(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	goal := 30
	rec := doJSON(t, router, "POST", "/habits/", habit.CreateHabitRequest{Name: "Read", GoalDays: &goal})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp habit.Response
	decodeBody(t, rec, &resp)
	if resp.ID == "" {
		t.Error("expected a generated id")
	}
	if resp.Name != "Read" {
		t.Errorf("expected name Read, got %q", resp.Name)
	}
	if resp.GoalDays == nil || *resp.GoalDays != 30 {
		t.Errorf("expected goalDays 30, got %v", resp.GoalDays)
	}
	if resp.CompletedDates == nil || len(resp.CompletedDates) != 0 {
		t.Errorf("expected empty completedDates, got %v", resp.CompletedDates)
	}
}

func TestCreateHabitTrimsName(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	rec := doJSON(t, router, "POST", "/habits/", habit.CreateHabitRequest{Name: " Read "})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp habit.Response
	decodeBody(t, rec, &resp)
	if resp.Name != "Read" {
		t.Errorf("expected stored name %q, got %q", "Read", resp.Name)
	}
}

func TestCreateHabitBlankName(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	rec := doJSON(t, router, "POST", "/habits/", habit.CreateHabitRequest{Name: "   "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["field"] != "name" {
		t.Errorf("expected failing field name, got %q", resp["field"])
	}
}

func TestCreateHabitInvalidBody(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	req := httptest.NewRequest("POST", "/habits/", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestToggleCompletionFlow(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	rec := doJSON(t, router, "POST", "/habits/", habit.CreateHabitRequest{Name: "Read"})
	var created habit.Response
	decodeBody(t, rec, &created)

	togglePath := fmt.Sprintf("/habits/%s/toggle", created.ID)

	rec = doJSON(t, router, "POST", togglePath, habit.ToggleRequest{Date: "2024-01-01"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var toggled habit.Response
	decodeBody(t, rec, &toggled)
	if len(toggled.CompletedDates) != 1 || toggled.CompletedDates[0] != "2024-01-01" {
		t.Fatalf("expected completedDates [2024-01-01], got %v", toggled.CompletedDates)
	}

	// Second toggle for the same date un-marks it.
	rec = doJSON(t, router, "POST", togglePath, habit.ToggleRequest{Date: "2024-01-01"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &toggled)
	if len(toggled.CompletedDates) != 0 {
		t.Fatalf("expected empty completedDates after second toggle, got %v", toggled.CompletedDates)
	}
}

func TestToggleCompletionUnknownHabit(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	rec := doJSON(t, router, "POST", "/habits/missing/toggle", habit.ToggleRequest{Date: "2024-01-01"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestToggleCompletionMalformedDate(t *testing.T) {
	svc := newFakeHabitService()
	router := newTestRouter(svc)

	rec := doJSON(t, router, "POST", "/habits/", habit.CreateHabitRequest{Name: "Read"})
	var created habit.Response
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, "POST", "/habits/"+created.ID+"/toggle", habit.ToggleRequest{Date: "not-a-date"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["field"] != "date" {
		t.Errorf("expected failing field date, got %q", resp["field"])
	}
}

func TestDeleteHabit(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	rec := doJSON(t, router, "POST", "/habits/", habit.CreateHabitRequest{Name: "Read"})
	var created habit.Response
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, "DELETE", "/habits/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}

	rec = doJSON(t, router, "GET", "/habits/", nil)
	var listed []habit.Response
	decodeBody(t, rec, &listed)
	if len(listed) != 0 {
		t.Errorf("expected deleted habit to be absent, got %v", listed)
	}
}

func TestDeleteHabitUnknown(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	rec := doJSON(t, router, "DELETE", "/habits/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetActivity(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	var first, second habit.Response
	rec := doJSON(t, router, "POST", "/habits/", habit.CreateHabitRequest{Name: "Read"})
	decodeBody(t, rec, &first)
	rec = doJSON(t, router, "POST", "/habits/", habit.CreateHabitRequest{Name: "Run"})
	decodeBody(t, rec, &second)

	doJSON(t, router, "POST", "/habits/"+first.ID+"/toggle", habit.ToggleRequest{Date: "2024-01-01"})
	doJSON(t, router, "POST", "/habits/"+second.ID+"/toggle", habit.ToggleRequest{Date: "2024-01-01"})
	doJSON(t, router, "POST", "/habits/"+second.ID+"/toggle", habit.ToggleRequest{Date: "2024-01-02"})

	rec = doJSON(t, router, "GET", "/habits/activity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp habit.ActivityResponse
	decodeBody(t, rec, &resp)
	if resp.Activity["2024-01-01"] != 2 {
		t.Errorf("expected 2 completions on 2024-01-01, got %d", resp.Activity["2024-01-01"])
	}
	if resp.Activity["2024-01-02"] != 1 {
		t.Errorf("expected 1 completion on 2024-01-02, got %d", resp.Activity["2024-01-02"])
	}
}

func TestActivityEmptyMapping(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	rec := doJSON(t, router, "GET", "/habits/activity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"activity":{}}` {
		t.Errorf("expected empty activity object, got %s", rec.Body.String())
	}
}

func TestTrailingSlashIsSignificant(t *testing.T) {
	router := newTestRouter(newFakeHabitService())

	rec := doJSON(t, router, "GET", "/habits", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for /habits without trailing slash, got %d", rec.Code)
	}
}
