package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gurkanbulca/tasklist/internal/models"
	"github.com/gurkanbulca/tasklist/internal/repository"
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxNameLength        int
	MaxDescriptionLength int
	MaxStatusLength      int
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxNameLength:        255,
		MaxDescriptionLength: 5000,
		MaxStatusLength:      50,
	}
}

// TaskFields is the raw, unvalidated task form.
type TaskFields struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
}

type validator struct {
	config *ValidationConfig
}

func newValidator(config *ValidationConfig) *validator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &validator{config: config}
}

func (v *validator) validateTask(f TaskFields) (*repository.TaskInput, error) {
	verr := &ValidationError{}

	name := v.requiredString(verr, "name", f.Name, v.config.MaxNameLength)
	status := v.requiredString(verr, "status", f.Status, v.config.MaxStatusLength)

	description := strings.TrimSpace(f.Description)
	if utf8.RuneCountInString(description) > v.config.MaxDescriptionLength {
		verr.add("description", maxMessage("description", v.config.MaxDescriptionLength))
	}

	due := v.dueDate(verr, f.DueDate)

	if !verr.empty() {
		return nil, verr
	}
	return &repository.TaskInput{
		Name:        name,
		Description: description,
		Status:      status,
		DueDate:     due,
	}, nil
}

func (v *validator) validateStatus(raw string) (string, error) {
	verr := &ValidationError{}
	status := v.requiredString(verr, "status", raw, v.config.MaxStatusLength)
	if !verr.empty() {
		return "", verr
	}
	return status, nil
}

func (v *validator) validateDueDate(raw string) (models.Date, error) {
	verr := &ValidationError{}
	due := v.dueDate(verr, raw)
	if !verr.empty() {
		return models.Date{}, verr
	}
	return due, nil
}

func (v *validator) requiredString(verr *ValidationError, field, raw string, max int) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		verr.add(field, requiredMessage(field))
		return ""
	}
	if utf8.RuneCountInString(value) > max {
		verr.add(field, maxMessage(field, max))
	}
	return value
}

func (v *validator) dueDate(verr *ValidationError, raw string) models.Date {
	if strings.TrimSpace(raw) == "" {
		verr.add("due_date", requiredMessage("due_date"))
		return models.Date{}
	}
	due, err := models.ParseDate(raw)
	if err != nil {
		verr.add("due_date", fmt.Sprintf("The %s field must be a valid date.", attribute("due_date")))
		return models.Date{}
	}
	return due
}

func attribute(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func requiredMessage(field string) string {
	return fmt.Sprintf("The %s field is required.", attribute(field))
}

func maxMessage(field string, max int) string {
	return fmt.Sprintf("The %s field must not be greater than %d characters.", attribute(field), max)
}
