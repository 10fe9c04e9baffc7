package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gurkanbulca/tasklist/internal/middleware"
	"github.com/gurkanbulca/tasklist/internal/models"
	"github.com/gurkanbulca/tasklist/internal/service"
	"github.com/gurkanbulca/tasklist/pkg/envelope"
)

const (
	MsgListed       = "Showing All Tasks"
	MsgCreated      = "New Task has been Created"
	MsgOpenModal    = "Open Modal"
	MsgUpdated      = "This Task has been Updated"
	MsgDestroyed    = "This Task has been Destroyed"
	MsgCSRFToken    = "CSRF Token"
	MsgMalformed    = middleware.MsgMalformedBody
	msgStatusPrefix = "Status updated to "
	msgDuePrefix    = "Due date updated to "
)

func actorFrom(r *http.Request) service.Actor {
	actor, _ := middleware.GetActorFromContext(r.Context())
	return actor
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := s.tasks.List(r.Context(), actorFrom(r), listInput(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tasks := page.Tasks
	if tasks == nil {
		tasks = []*models.Task{}
	}
	envelope.SuccessWithMeta(w, http.StatusOK, MsgListed, tasks, pageMeta{
		Page:     page.Page,
		PerPage:  page.PerPage,
		Total:    page.Total,
		LastPage: page.LastPage,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	values, err := readValues(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	task, err := s.tasks.Create(r.Context(), actorFrom(r), taskFields(values))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Success(w, http.StatusCreated, MsgCreated, task)
}

// handleShow serves both show and edit: the client opens the same modal.
func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Success(w, http.StatusOK, MsgOpenModal, newModalTask(task))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	values, err := readValues(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	task, err := s.tasks.Update(r.Context(), actorFrom(r), r.PathValue("id"), taskFields(values))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Success(w, http.StatusOK, MsgUpdated, task)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	values, err := readValues(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	task, err := s.tasks.ChangeStatus(r.Context(), actorFrom(r), r.PathValue("id"), values.Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Success(w, http.StatusOK, msgStatusPrefix+task.Status, task)
}

func (s *Server) handleChangeDueDate(w http.ResponseWriter, r *http.Request) {
	values, err := readValues(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	task, err := s.tasks.ChangeDueDate(r.Context(), actorFrom(r), r.PathValue("id"), values.Get("due_date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	envelope.Success(w, http.StatusOK, msgDuePrefix+task.DueDate.String(), task)
}

// handleDelete removes the tasks listed in "ids". On /tasks/{id} the path id
// is used when the body names none.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	values, err := readValues(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ids := taskIDs(values)
	if len(ids) == 0 && r.PathValue("id") != "" {
		ids = []string{r.PathValue("id")}
	}

	deleted, err := s.tasks.Delete(r.Context(), actorFrom(r), ids)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log.Printf("[INFO] deleted %d of %d requested tasks", deleted, len(ids))
	envelope.Success(w, http.StatusOK, MsgDestroyed, nil)
}

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if s.csrf == nil {
		envelope.Error(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	envelope.Success(w, http.StatusOK, MsgCSRFToken, csrfToken{Token: s.csrf.Token(actor.ID.String())})
}

// writeError maps a service error onto its envelope. Internal details are
// logged and never sent.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errMalformedBody) {
		envelope.Error(w, http.StatusBadRequest, MsgMalformed)
		return
	}

	switch service.KindOf(err) {
	case service.KindValidation:
		var verr *service.ValidationError
		errors.As(err, &verr)
		envelope.FieldErrors(w, http.StatusUnprocessableEntity, verr.Fields)
	case service.KindNotFound:
		envelope.Error(w, http.StatusNotFound, service.MsgTaskNotFound)
	case service.KindUnauthorized:
		envelope.Error(w, http.StatusUnauthorized, service.MsgUnauthenticated)
	default:
		log.Printf("[ERROR] %s %s: %v", r.Method, r.URL.Path, err)
		envelope.Error(w, http.StatusInternalServerError, service.MsgInternal)
	}
}
