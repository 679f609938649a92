package habit

import (
	"time"
)

const DateLayout = "2006-01-02"

type Habit struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	GoalDays    *int      `json:"goal_days" db:"goal_days"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Completions []*Completion `json:"completions"`
}

// Completion marks a habit as done on one calendar date. The surrogate id is
// never exposed on the wire; the (HabitID, CompletedDate) pair is unique.
type Completion struct {
	ID            int64     `json:"id" db:"id"`
	HabitID       string    `json:"habit_id" db:"habit_id"`
	CompletedDate time.Time `json:"completed_date" db:"completed_date"`
}

// Response is the wire shape of a habit. CompletedDates is always a JSON
// array, never null, in storage order.
type Response struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    *string  `json:"description"`
	GoalDays       *int     `json:"goalDays"`
	CreatedAt      string   `json:"createdAt"`
	CompletedDates []string `json:"completedDates"`
}

func (h *Habit) Response() *Response {
	dates := make([]string, 0, len(h.Completions))
	for _, c := range h.Completions {
		dates = append(dates, c.CompletedDate.Format(DateLayout))
	}

	return &Response{
		ID:             h.ID,
		Name:           h.Name,
		Description:    h.Description,
		GoalDays:       h.GoalDays,
		CreatedAt:      h.CreatedAt.Format(DateLayout),
		CompletedDates: dates,
	}
}

type ActivityResponse struct {
	Activity map[string]int `json:"activity"`
}
