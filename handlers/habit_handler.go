package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"habitflowAPI/internal/types/habit"
	"habitflowAPI/services"

	"github.com/gorilla/mux"
)

// HabitService is what the handler needs from the service layer.
type HabitService interface {
	ListHabits(ctx context.Context) ([]*habit.Habit, error)
	CreateHabit(ctx context.Context, req *habit.CreateHabitRequest) (*habit.Habit, error)
	DeleteHabit(ctx context.Context, habitID string) error
	ToggleCompletion(ctx context.Context, habitID string, date time.Time) (*habit.Habit, error)
	GetActivityCounts(ctx context.Context) (map[string]int, error)
}

type HabitHandler struct {
	habitService HabitService
}

func NewHabitHandler(habitService HabitService) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
	}
}

func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	habits, err := h.habitService.ListHabits(ctx)
	if err != nil {
		log.Printf("ListHabits Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list habits")
		return
	}

	views := make([]*habit.Response, 0, len(habits))
	for _, hb := range habits {
		views = append(views, hb.Response())
	}

	respondWithJSON(w, http.StatusOK, views)
}

func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req habit.CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondWithValidationError(w, err)
		return
	}

	created, err := h.habitService.CreateHabit(ctx, &req)
	if err != nil {
		log.Printf("CreateHabit Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create habit")
		return
	}

	respondWithJSON(w, http.StatusCreated, created.Response())
}

func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	habitID := mux.Vars(r)["habitID"]

	if err := h.habitService.DeleteHabit(ctx, habitID); err != nil {
		if errors.Is(err, services.ErrHabitNotFound) {
			respondWithError(w, http.StatusNotFound, "Habit not found")
			return
		}
		log.Printf("DeleteHabit Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete habit")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HabitHandler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	habitID := mux.Vars(r)["habitID"]

	var req habit.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	date, err := req.Validate()
	if err != nil {
		respondWithValidationError(w, err)
		return
	}

	toggled, err := h.habitService.ToggleCompletion(ctx, habitID, date)
	if err != nil {
		if errors.Is(err, services.ErrHabitNotFound) {
			respondWithError(w, http.StatusNotFound, "Habit not found")
			return
		}
		log.Printf("ToggleCompletion Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to toggle completion")
		return
	}

	respondWithJSON(w, http.StatusOK, toggled.Response())
}

func (h *HabitHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	activity, err := h.habitService.GetActivityCounts(ctx)
	if err != nil {
		log.Printf("GetActivity Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to aggregate activity")
		return
	}

	respondWithJSON(w, http.StatusOK, habit.ActivityResponse{Activity: activity})
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

func respondWithValidationError(w http.ResponseWriter, err error) {
	var ve *habit.ValidationError
	if errors.As(err, &ve) {
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": ve.Message,
			"field": ve.Field,
		})
		return
	}
	respondWithError(w, http.StatusUnprocessableEntity, err.Error())
}
