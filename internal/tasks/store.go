// Package tasks persists task records. Every read goes through the scoped
// filter from taskquery and every write carries the caller's id in its WHERE
// clause, so the database itself never returns or touches a row the caller is
// not entitled to. An unauthorized write is indistinguishable from a missing
// row: both come back as ErrNotFound.
package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ujjwalcurry30/Task-Tracker/internal/models"
	"github.com/ujjwalcurry30/Task-Tracker/internal/taskquery"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidStatus   = errors.New("invalid status")
)

const cacheTTL = time.Hour

const taskColumns = "id, owner_id, assigned_to, title, description, due_date, priority, status, created_at, updated_at"

type Store struct {
	db *sql.DB
	// cache boleh nil; tanpa Redis semua operasi langsung ke database
	cache *redis.Client
}

func NewStore(db *sql.DB, cache *redis.Client) *Store {
	return &Store{db: db, cache: cache}
}

func cacheKey(taskID int) string {
	return fmt.Sprintf("task:%d", taskID)
}

type CreateParams struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Status      string
	AssignedTo  *int
}

// Create inserts a new task. The owner is always the caller; any
// client-supplied owner value never reaches this function.
func (s *Store) Create(ctx context.Context, ownerID int, p CreateParams) (*models.Task, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	priority := p.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	status := p.Status
	if status == "" {
		status = models.StatusTodo
	}
	if !models.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	task := &models.Task{
		OwnerID:     ownerID,
		AssignedTo:  p.AssignedTo,
		Title:       title,
		Description: p.Description,
		DueDate:     p.DueDate,
		Priority:    priority,
		Status:      status,
	}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO tasks (owner_id, assigned_to, title, description, due_date, priority, status) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at",
		task.OwnerID, nullInt(task.AssignedTo), task.Title, task.Description, nullTime(task.DueDate), task.Priority, task.Status,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List returns the tasks matching the scoped filter, most recent first,
// creation-time ties in insertion order.
func (s *Store) List(ctx context.Context, f taskquery.Filter) ([]models.Task, error) {
	where, args := f.SQL()
	query := "SELECT " + taskColumns + " FROM tasks WHERE " + where + " ORDER BY created_at DESC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// Get fetches one task visible to the caller. A cached copy is only served
// after the same visibility check the query filter would apply.
func (s *Store) Get(ctx context.Context, callerID, taskID int) (*models.Task, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey(taskID)).Result(); err == nil {
			var task models.Task
			if err := json.Unmarshal([]byte(cached), &task); err == nil {
				if !taskquery.VisibleTo(callerID).Matches(task) {
					return nil, ErrNotFound
				}
				return &task, nil
			}
		}
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND (owner_id = $2 OR assigned_to = $2)",
		taskID, callerID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, task)
	return task, nil
}

// UpdateParams carries a partial update; nil fields are left untouched.
// DueDate and AssignedTo can be explicitly cleared (ClearDueDate, or
// AssignedTo pointing at 0).
type UpdateParams struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *string
	Status       *string
	AssignedTo   *int
}

// Update applies a partial update. Only the owner or the current assignee can
// hit the row; anyone else gets ErrNotFound. The owner column is never part
// of the SET list.
func (s *Store) Update(ctx context.Context, callerID, taskID int, p UpdateParams) (*models.Task, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		set("title", title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if p.DueDate != nil {
		set("due_date", *p.DueDate)
	}
	if p.Priority != nil {
		if !models.ValidPriority(*p.Priority) {
			return nil, ErrInvalidPriority
		}
		set("priority", *p.Priority)
	}
	if p.Status != nil {
		if !models.ValidStatus(*p.Status) {
			return nil, ErrInvalidStatus
		}
		set("status", *p.Status)
	}
	if p.AssignedTo != nil {
		if *p.AssignedTo == 0 {
			sets = append(sets, "assigned_to = NULL")
		} else {
			set("assigned_to", *p.AssignedTo)
		}
	}

	args = append(args, taskID)
	idArg := len(args)
	args = append(args, callerID)
	callerArg := len(args)

	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $%d AND (owner_id = $%d OR assigned_to = $%d) RETURNING %s",
		strings.Join(sets, ", "), idArg, callerArg, callerArg, taskColumns)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.cacheDel(ctx, taskID)
	s.cacheSet(ctx, task)
	return task, nil
}

// Delete removes a task. Owner only; assignees and strangers both get
// ErrNotFound, as does a second delete of the same id.
func (s *Store) Delete(ctx context.Context, callerID, taskID int) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = $1 AND owner_id = $2", taskID, callerID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.cacheDel(ctx, taskID)
	return nil
}

func (s *Store) cacheSet(ctx context.Context, task *models.Task) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(task); err == nil {
		// Kegagalan cache tidak menggagalkan request
		s.cache.Set(ctx, cacheKey(task.ID), data, cacheTTL)
	}
}

func (s *Store) cacheDel(ctx context.Context, taskID int) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, cacheKey(taskID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var assignedTo sql.NullInt64
	var dueDate sql.NullTime
	err := row.Scan(&task.ID, &task.OwnerID, &assignedTo, &task.Title, &task.Description,
		&dueDate, &task.Priority, &task.Status, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		v := int(assignedTo.Int64)
		task.AssignedTo = &v
	}
	if dueDate.Valid {
		v := dueDate.Time
		task.DueDate = &v
	}
	return &task, nil
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
