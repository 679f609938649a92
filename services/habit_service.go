package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habitflowAPI/internal/types/habit"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrHabitNotFound = errors.New("habit not found")

type HabitService struct {
	db *pgxpool.Pool
}

func NewHabitService(db *pgxpool.Pool) *HabitService {
	return &HabitService{db: db}
}

// ListHabits returns every habit ordered by creation date, completions
// attached. Both queries run inside one transaction so the listing is a
// consistent snapshot.
func (s *HabitService) ListHabits(ctx context.Context) ([]*habit.Habit, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	SELECT id, name, description, goal_days, created_at
	FROM habits
	ORDER BY created_at
	`

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	habits := []*habit.Habit{}
	for rows.Next() {
		h := &habit.Habit{}
		if err := rows.Scan(&h.ID, &h.Name, &h.Description, &h.GoalDays, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read habits: %w", err)
	}

	if err := s.loadCompletions(ctx, tx, habits); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return habits, nil
}

// CreateHabit persists a new habit with a fresh uuid and today's date. The
// request is expected to be validated already.
func (s *HabitService) CreateHabit(ctx context.Context, req *habit.CreateHabitRequest) (*habit.Habit, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO habits (id, name, description, goal_days, created_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, name, description, goal_days, created_at
	`

	h := &habit.Habit{Completions: []*habit.Completion{}}
	err = tx.QueryRow(
		ctx,
		query,
		uuid.New().String(),
		req.Name,
		req.Description,
		req.GoalDays,
		time.Now(),
	).Scan(&h.ID, &h.Name, &h.Description, &h.GoalDays, &h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return h, nil
}

// DeleteHabit removes a habit; its completions go with it via the cascade on
// habit_completions.habit_id.
func (s *HabitService) DeleteHabit(ctx context.Context, habitID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM habits WHERE id = $1`, habitID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrHabitNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// ToggleCompletion flips the (habit, date) pair: an existing completion is
// deleted, a missing one is inserted. The insert tolerates a concurrent
// toggle winning the race via ON CONFLICT DO NOTHING, so the uniqueness
// constraint never surfaces as an error here.
func (s *HabitService) ToggleCompletion(ctx context.Context, habitID string, date time.Time) (*habit.Habit, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	h, err := s.getHabit(ctx, tx, habitID)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(
		ctx,
		`DELETE FROM habit_completions WHERE habit_id = $1 AND completed_date = $2`,
		habitID,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to unmark completion: %w", err)
	}

	if tag.RowsAffected() == 0 {
		_, err = tx.Exec(
			ctx,
			`INSERT INTO habit_completions (habit_id, completed_date)
			 VALUES ($1, $2)
			 ON CONFLICT ON CONSTRAINT uq_habit_date DO NOTHING`,
			habitID,
			date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to mark completion: %w", err)
		}
	}

	if err := s.loadCompletions(ctx, tx, []*habit.Habit{h}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return h, nil
}

// GetActivityCounts aggregates completions per calendar date across all
// habits.
func (s *HabitService) GetActivityCounts(ctx context.Context) (map[string]int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT completed_date, COUNT(*) FROM habit_completions GROUP BY completed_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate activity: %w", err)
	}
	defer rows.Close()

	activity := map[string]int{}
	for rows.Next() {
		var d time.Time
		var count int
		if err := rows.Scan(&d, &count); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		activity[d.Format(habit.DateLayout)] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return activity, nil
}

func (s *HabitService) getHabit(ctx context.Context, tx pgx.Tx, habitID string) (*habit.Habit, error) {
	h := &habit.Habit{}
	err := tx.QueryRow(
		ctx,
		`SELECT id, name, description, goal_days, created_at FROM habits WHERE id = $1`,
		habitID,
	).Scan(&h.ID, &h.Name, &h.Description, &h.GoalDays, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return h, nil
}

// loadCompletions attaches completions to the given habits with a single
// query, ordered by surrogate id so completedDates keeps insertion order.
func (s *HabitService) loadCompletions(ctx context.Context, tx pgx.Tx, habits []*habit.Habit) error {
	if len(habits) == 0 {
		return nil
	}

	byID := make(map[string]*habit.Habit, len(habits))
	ids := make([]string, 0, len(habits))
	for _, h := range habits {
		h.Completions = []*habit.Completion{}
		byID[h.ID] = h
		ids = append(ids, h.ID)
	}

	rows, err := tx.Query(
		ctx,
		`SELECT id, habit_id, completed_date FROM habit_completions WHERE habit_id = ANY($1) ORDER BY id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to load completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &habit.Completion{}
		if err := rows.Scan(&c.ID, &c.HabitID, &c.CompletedDate); err != nil {
			return fmt.Errorf("failed to scan completion: %w", err)
		}
		if h, ok := byID[c.HabitID]; ok {
			h.Completions = append(h.Completions, c)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read completions: %w", err)
	}

	return nil
}
