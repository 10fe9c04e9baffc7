// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/gurkanbulca/tasklist/internal/models"
	"github.com/gurkanbulca/tasklist/internal/repository"
)

// Actor is the authenticated user a request runs as.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
}

func (a Actor) user() *models.User {
	return &models.User{ID: a.ID, Name: a.Name, Email: a.Email}
}

type Options struct {
	PageSize    int
	MaxPageSize int
	Validation  *ValidationConfig
}

type TaskService struct {
	repo        *repository.TaskRepository
	validator   *validator
	pageSize    int
	maxPageSize int
}

func NewTaskService(repo *repository.TaskRepository, opts Options) *TaskService {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.MaxPageSize < opts.PageSize {
		opts.MaxPageSize = opts.PageSize
	}
	return &TaskService{
		repo:        repo,
		validator:   newValidator(opts.Validation),
		pageSize:    opts.PageSize,
		maxPageSize: opts.MaxPageSize,
	}
}

type ListInput struct {
	Status     string
	SearchName string
	Page       int // 1-based
	PerPage    int
}

type TaskPage struct {
	Tasks    []*models.Task
	Total    int
	Page     int
	PerPage  int
	LastPage int
}

// List returns the actor's tasks, filtered and ordered by due date.
func (s *TaskService) List(ctx context.Context, actor Actor, in ListInput) (*TaskPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	perPage := in.PerPage
	if perPage <= 0 {
		perPage = s.pageSize
	}
	if perPage > s.maxPageSize {
		perPage = s.maxPageSize
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	// Keep the offset representable.
	if maxPage := math.MaxInt32 / perPage; page > maxPage {
		page = maxPage
	}

	tasks, total, err := s.repo.List(ctx, repository.ListFilter{
		UserID:        actor.ID,
		Status:        strings.TrimSpace(in.Status),
		Search:        strings.TrimSpace(in.SearchName),
		Limit:         perPage,
		Offset:        (page - 1) * perPage,
		WithRelations: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}

	return &TaskPage{
		Tasks:    tasks,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		LastPage: lastPage,
	}, nil
}

// Create stores a new task. Creator and assignee are always the actor.
func (s *TaskService) Create(ctx context.Context, actor Actor, fields TaskFields) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	input, err := s.validator.validateTask(fields)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.Create(ctx, actor.user(), input)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Get returns a task owned by the actor.
func (s *TaskService) Get(ctx context.Context, actor Actor, id string) (*models.Task, error) {
	taskID, err := s.authorize(actor, id)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.GetOwned(ctx, taskID, actor.ID)
	if err != nil {
		return nil, translate("get task", err)
	}
	return task, nil
}

// Update replaces name, description, status and due date.
func (s *TaskService) Update(ctx context.Context, actor Actor, id string, fields TaskFields) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	input, err := s.validator.validateTask(fields)
	if err != nil {
		return nil, err
	}

	taskID, err := s.authorize(actor, id)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.Update(ctx, taskID, actor.ID, &repository.TaskUpdateInput{
		Name:        &input.Name,
		Description: &input.Description,
		Status:      &input.Status,
		DueDate:     &input.DueDate,
	})
	if err != nil {
		return nil, translate("update task", err)
	}
	return task, nil
}

func (s *TaskService) ChangeStatus(ctx context.Context, actor Actor, id, status string) (*models.Task, error) {
	taskID, err := s.authorize(actor, id)
	if err != nil {
		return nil, err
	}

	value, err := s.validator.validateStatus(status)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.Update(ctx, taskID, actor.ID, &repository.TaskUpdateInput{Status: &value})
	if err != nil {
		return nil, translate("change status", err)
	}
	return task, nil
}

func (s *TaskService) ChangeDueDate(ctx context.Context, actor Actor, id, dueDate string) (*models.Task, error) {
	taskID, err := s.authorize(actor, id)
	if err != nil {
		return nil, err
	}

	due, err := s.validator.validateDueDate(dueDate)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.Update(ctx, taskID, actor.ID, &repository.TaskUpdateInput{DueDate: &due})
	if err != nil {
		return nil, translate("change due date", err)
	}
	return task, nil
}

// Delete removes the listed tasks the actor owns. Unknown, malformed and
// foreign ids are skipped; the returned count covers deleted rows only.
func (s *TaskService) Delete(ctx context.Context, actor Actor, ids []string) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}

	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		parsed = append(parsed, id)
	}

	deleted, err := s.repo.DeleteOwned(ctx, parsed, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return deleted, nil
}

// authorize checks the actor and resolves the task id. The ownership check
// itself happens inside the repository query so existence never leaks.
func (s *TaskService) authorize(actor Actor, id string) (uuid.UUID, error) {
	if err := requireActor(actor); err != nil {
		return uuid.Nil, err
	}
	taskID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, ErrTaskNotFound
	}
	return taskID, nil
}

func requireActor(actor Actor) error {
	if actor.ID == uuid.Nil {
		return ErrUnauthorized
	}
	return nil
}

func translate(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
