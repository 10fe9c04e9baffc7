package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/tasklist/internal/models"
)

// modalTask is the task as the edit form consumes it: only the editable
// fields, the date as YYYY-MM-DD and the URL the form submits to.
type modalTask struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	DueDate     models.Date `json:"due_date"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	URL         string      `json:"url"`
}

func newModalTask(t *models.Task) modalTask {
	return modalTask{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		URL:         taskURL(t.ID),
	}
}

// taskURL is the task's update route. It is relative so clients resolve it
// against their own base URL.
func taskURL(id uuid.UUID) string {
	return "/tasks/" + id.String()
}

type pageMeta struct {
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

type csrfToken struct {
	Token string `json:"token"`
}
