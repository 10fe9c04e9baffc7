// internal/repository/task_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/tasklist/internal/models"
)

// ErrNotFound is returned when a task does not exist or is not visible to the
// requesting user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("task not found")

const tasksTable = "tasks"

// Task columns.
const (
	ColumnID          = "id"
	ColumnName        = "name"
	ColumnDescription = "description"
	ColumnStatus      = "status"
	ColumnDueDate     = "due_date"
	ColumnCreatedBy   = "created_by"
	ColumnAssignedTo  = "assigned_to"
	ColumnCreatedAt   = "created_at"
	ColumnUpdatedAt   = "updated_at"
)

var taskColumns = []string{
	ColumnID,
	ColumnName,
	ColumnDescription,
	ColumnStatus,
	ColumnDueDate,
	ColumnCreatedBy,
	ColumnAssignedTo,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

// OwnedBy restricts a query to tasks the user created or is assigned to.
// It is meant to be combined with further predicates.
func OwnedBy(userID uuid.UUID) *entsql.Predicate {
	return entsql.Or(
		entsql.EQ(ColumnCreatedBy, userID),
		entsql.EQ(ColumnAssignedTo, userID),
	)
}

type TaskRepository struct {
	db    *sqlx.DB
	users *UserRepository
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{
		db:    db,
		users: NewUserRepository(db),
	}
}

// builder returns a query builder for the connected driver. sqlx driver names
// and ent dialect names are the same strings ("postgres", "sqlite3").
func (r *TaskRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.DriverName())
}

func (r *TaskRepository) Create(ctx context.Context, creator *models.User, t *TaskInput) (*models.Task, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	created := &models.Task{
		ID:          uuid.New(),
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
		CreatedBy:   creator.ID,
		AssignedTo:  creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}

	if err := r.users.WithTx(tx).Upsert(ctx, creator); err != nil {
		return nil, rollback(tx, err)
	}

	query, args := r.builder().
		Insert(tasksTable).
		Columns(taskColumns...).
		Values(
			created.ID,
			created.Name,
			created.Description,
			created.Status,
			created.DueDate,
			created.CreatedBy,
			created.AssignedTo,
			created.CreatedAt,
			created.UpdatedAt,
		).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, rollback(tx, fmt.Errorf("insert task: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}

	owner := *creator
	created.Creator = &owner
	created.Assignee = &owner
	return created, nil
}

// GetOwned returns the task with creator and assignee resolved. ErrNotFound is
// returned when the task is missing or not owned by userID.
func (r *TaskRepository) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	query, args := r.builder().
		Select(taskColumns...).
		From(entsql.Table(tasksTable)).
		Where(entsql.And(entsql.EQ(ColumnID, id), OwnedBy(userID))).
		Limit(1).
		Query()

	var t models.Task
	if err := r.db.GetContext(ctx, &t, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	if err := r.loadUsers(ctx, []*models.Task{&t}); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, filter ListFilter) ([]*models.Task, int, error) {
	// Get total count before pagination
	countQuery, countArgs := r.builder().
		Select(entsql.Count("*")).
		From(entsql.Table(tasksTable)).
		Where(entsql.And(listPredicates(filter)...)).
		Query()

	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	selector := r.builder().
		Select(taskColumns...).
		From(entsql.Table(tasksTable)).
		Where(entsql.And(listPredicates(filter)...)).
		OrderBy(entsql.Asc(ColumnDueDate), entsql.Asc(ColumnID))

	// Apply pagination
	if filter.Limit > 0 {
		selector = selector.Limit(filter.Limit)
		if filter.Offset > 0 {
			selector = selector.Offset(filter.Offset)
		}
	}

	query, args := selector.Query()
	tasks := []*models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}

	// Include creator and assignee information
	if filter.WithRelations {
		if err := r.loadUsers(ctx, tasks); err != nil {
			return nil, 0, err
		}
	}

	return tasks, totalCount, nil
}

// listPredicates builds a fresh predicate set on every call so the count and
// the page query never share builder state.
func listPredicates(filter ListFilter) []*entsql.Predicate {
	predicates := []*entsql.Predicate{OwnedBy(filter.UserID)}

	if filter.Status != "" {
		predicates = append(predicates, entsql.EQ(ColumnStatus, filter.Status))
	}

	// ILIKE on postgres. SQLite's LOWER only folds ASCII letters.
	if filter.Search != "" {
		predicates = append(predicates, entsql.ContainsFold(ColumnName, filter.Search))
	}

	return predicates
}

// Update applies the non-nil fields of input to a task owned by userID and
// returns the stored result.
func (r *TaskRepository) Update(ctx context.Context, id, userID uuid.UUID, input *TaskUpdateInput) (*models.Task, error) {
	update := r.builder().
		Update(tasksTable).
		Set(ColumnUpdatedAt, time.Now().UTC().Truncate(time.Microsecond))

	if input.Name != nil {
		update = update.Set(ColumnName, *input.Name)
	}
	if input.Description != nil {
		update = update.Set(ColumnDescription, *input.Description)
	}
	if input.Status != nil {
		update = update.Set(ColumnStatus, *input.Status)
	}
	if input.DueDate != nil {
		update = update.Set(ColumnDueDate, *input.DueDate)
	}

	query, args := update.
		Where(entsql.And(entsql.EQ(ColumnID, id), OwnedBy(userID))).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.GetOwned(ctx, id, userID)
}

// DeleteOwned removes every listed task owned by userID in one statement. Ids
// that are unknown or belong to someone else are skipped.
func (r *TaskRepository) DeleteOwned(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query, qargs := r.builder().
		Delete(tasksTable).
		Where(entsql.And(entsql.In(ColumnID, args...), OwnedBy(userID))).
		Query()

	res, err := r.db.ExecContext(ctx, query, qargs...)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return res.RowsAffected()
}

// loadUsers resolves creator and assignee with a single batched lookup.
func (r *TaskRepository) loadUsers(ctx context.Context, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, t := range tasks {
		for _, id := range []uuid.UUID{t.CreatedBy, t.AssignedTo} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	byID, err := r.users.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("load task users: %w", err)
	}
	for _, t := range tasks {
		if u, ok := byID[t.CreatedBy]; ok {
			creator := u
			t.Creator = &creator
		}
		if u, ok := byID[t.AssignedTo]; ok {
			assignee := u
			t.Assignee = &assignee
		}
	}
	return nil
}

// Helper function for transaction rollback
func rollback(tx *sqlx.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}

// Types for repository input
type TaskInput struct {
	Name        string
	Description string
	Status      string
	DueDate     models.Date
}

type TaskUpdateInput struct {
	Name        *string
	Description *string
	Status      *string
	DueDate     *models.Date
}

type ListFilter struct {
	UserID        uuid.UUID // Required: tasks the user created or is assigned to
	Status        string
	Search        string // Case-insensitive substring of the name
	Limit         int
	Offset        int
	WithRelations bool // Include creator and assignee information
}
