package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gurkanbulca/tasklist/pkg/envelope"
)

type State int

const (
	StateIdle State = iota
	StateModalOpenCreate
	StateModalOpenEdit
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateModalOpenCreate:
		return "modal_open_create"
	case StateModalOpenEdit:
		return "modal_open_edit"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Op names an interaction whose success can be observed through Callbacks.
type Op string

const (
	OpEdit       Op = "edit"
	OpFormSubmit Op = "formSubmit"
	OpDelete     Op = "delete"
)

// Callback receives the successful response of an operation.
type Callback func(resp *envelope.Raw)

type Callbacks map[Op]Callback

// Toaster shows transient notifications.
type Toaster interface {
	Success(message string)
	Error(message string)
}

const (
	TitleCreate = "Create Form"
	TitleEdit   = "Edit Form"

	DefaultReloadDelay = 400 * time.Millisecond
	DeletePrompt       = "Are you sure you want to delete this task?"
)

var (
	// ErrBusy is returned while a request is in flight.
	ErrBusy         = errors.New("a request is already in progress")
	ErrNoModal      = errors.New("no form is open")
	ErrUnknownField = errors.New("unknown form field")
	ErrNoSelection  = errors.New("no task selected")
)

// Form holds the modal form inputs.
type Form struct {
	Name        string
	Description string
	Status      string
	DueDate     string
}

func (f Form) Values() url.Values {
	return url.Values{
		"name":        {f.Name},
		"description": {f.Description},
		"status":      {f.Status},
		"due_date":    {f.DueDate},
	}
}

// Modal is a snapshot of the form modal.
type Modal struct {
	Title string
	// Target is the URL the form submits to.
	Target string
	// Override is the method sent instead of POST, "PUT" when editing.
	Override string
	Form     Form
}

type Config struct {
	API       *APIClient
	Toaster   Toaster
	Callbacks Callbacks
	// Confirm asks before deleting. Deletes proceed when nil.
	Confirm func(prompt string) bool
	// Reload runs ReloadDelay after a successful delete. Optional.
	Reload      func()
	ReloadDelay time.Duration
	// Schedule runs f after d. Defaults to time.AfterFunc.
	Schedule func(d time.Duration, f func())
}

// Controller is the interaction state machine behind the task list page.
type Controller struct {
	api       *APIClient
	toaster   Toaster
	callbacks Callbacks
	confirm   func(string) bool
	reload    func()
	delay     time.Duration
	schedule  func(time.Duration, func())

	mu        sync.Mutex
	state     State
	modal     Modal
	selection *selection
}

func NewController(cfg Config) *Controller {
	c := &Controller{
		api:       cfg.API,
		toaster:   cfg.Toaster,
		callbacks: cfg.Callbacks,
		confirm:   cfg.Confirm,
		reload:    cfg.Reload,
		delay:     cfg.ReloadDelay,
		schedule:  cfg.Schedule,
		selection: newSelection(),
	}
	if c.delay <= 0 {
		c.delay = DefaultReloadDelay
	}
	if c.schedule == nil {
		c.schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if c.callbacks == nil {
		c.callbacks = Callbacks{}
	}
	c.resetModal()
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Modal() Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// OpenCreate opens an empty form that posts to target.
func (c *Controller) OpenCreate(target string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrBusy
	}
	c.resetModal()
	c.modal.Target = target
	c.state = StateModalOpenCreate
	return nil
}

// OpenEdit loads the task at target and opens the form on it.
func (c *Controller) OpenEdit(ctx context.Context, target string) error {
	if _, err := c.begin(); err != nil {
		return err
	}

	raw, err := c.api.Do(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.finish(StateIdle)
		c.renderError(err)
		return err
	}

	var task Task
	if err := raw.DecodeData(&task); err != nil {
		c.finish(StateIdle)
		err = fmt.Errorf("decode task: %w", err)
		c.renderError(err)
		return err
	}

	c.mu.Lock()
	c.modal = Modal{
		Title:    TitleEdit,
		Target:   target,
		Override: http.MethodPut,
		Form: Form{
			Name:        task.Name,
			Description: task.Description,
			Status:      task.Status,
			DueDate:     task.DueDate,
		},
	}
	if task.URL != "" {
		c.modal.Target = task.URL
	}
	c.state = StateModalOpenEdit
	c.mu.Unlock()

	c.dispatch(OpEdit, raw)
	return nil
}

// SetField sets one form input by its form name.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateSubmitting:
		return ErrBusy
	case StateIdle:
		return ErrNoModal
	}

	switch name {
	case "name":
		c.modal.Form.Name = value
	case "description":
		c.modal.Form.Description = value
	case "status":
		c.modal.Form.Status = value
	case "due_date":
		c.modal.Form.DueDate = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// Submit sends the open form. On failure the form stays open.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return ErrBusy
	case StateIdle:
		c.mu.Unlock()
		return ErrNoModal
	}
	prev := c.state
	modal := c.modal
	c.state = StateSubmitting
	c.mu.Unlock()

	method := modal.Override
	if method == "" {
		method = http.MethodPost
	}

	raw, err := c.api.Do(ctx, method, modal.Target, modal.Form.Values())
	if err != nil {
		c.finish(prev)
		c.renderError(err)
		return err
	}

	c.toastSuccess(raw)
	c.mu.Lock()
	c.resetModal()
	c.state = StateIdle
	c.mu.Unlock()

	c.dispatch(OpFormSubmit, raw)
	return nil
}

// Close resets and hides the form.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return ErrBusy
	}
	c.resetModal()
	c.state = StateIdle
	return nil
}

// Delete asks for confirmation and deletes ids through target. A declined
// confirmation is not an error.
func (c *Controller) Delete(ctx context.Context, target string, ids ...string) error {
	if len(ids) == 0 {
		return ErrNoSelection
	}
	if c.State() == StateSubmitting {
		return ErrBusy
	}
	if c.confirm != nil && !c.confirm(DeletePrompt) {
		return nil
	}

	if _, err := c.begin(); err != nil {
		return err
	}

	raw, err := c.api.Do(ctx, http.MethodDelete, target, url.Values{"ids": ids})
	if err != nil {
		c.finish(StateIdle)
		c.renderError(err)
		return err
	}

	c.toastSuccess(raw)
	c.mu.Lock()
	c.selection.clear()
	c.state = StateIdle
	c.mu.Unlock()

	c.dispatch(OpDelete, raw)
	if c.reload != nil {
		c.schedule(c.delay, c.reload)
	}
	return nil
}

// DeleteSelected deletes the checked tasks.
func (c *Controller) DeleteSelected(ctx context.Context, target string) error {
	return c.Delete(ctx, target, c.Selected()...)
}

// Toggle checks or unchecks one row.
func (c *Controller) Toggle(id string, checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.toggle(id, checked)
}

// SelectAll checks or unchecks every row in ids.
func (c *Controller) SelectAll(checked bool, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.selectAll(checked, ids)
}

// BulkActive reports whether the bulk delete control is shown.
func (c *Controller) BulkActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selection.order) > 0
}

// AllSelected reports the state of the "select all" box.
func (c *Controller) AllSelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.all
}

func (c *Controller) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.ids()
}

// begin enters Submitting and returns the state it left.
func (c *Controller) begin() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return c.state, ErrBusy
	}
	prev := c.state
	c.state = StateSubmitting
	return prev, nil
}

func (c *Controller) finish(next State) {
	c.mu.Lock()
	c.state = next
	c.mu.Unlock()
}

// resetModal must be called with mu held.
func (c *Controller) resetModal() {
	c.modal = Modal{Title: TitleCreate}
}

func (c *Controller) dispatch(op Op, raw *envelope.Raw) {
	if cb, ok := c.callbacks[op]; ok && cb != nil {
		cb(raw)
	}
}

func (c *Controller) toastSuccess(raw *envelope.Raw) {
	if c.toaster == nil {
		return
	}
	if msg, ok := raw.Text(); ok && msg != "" {
		c.toaster.Success(msg)
	}
}

// renderError shows a string message as one toast and field errors as one
// toast per field.
func (c *Controller) renderError(err error) {
	if c.toaster == nil {
		return
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		for _, line := range apiErr.Messages() {
			c.toaster.Error(line)
		}
		return
	}
	c.toaster.Error(err.Error())
}
