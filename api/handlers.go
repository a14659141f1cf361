package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"join-board/board"
	"join-board/domain"
)

// requestBodyMaxSize bounds how much of an intent request body is read.
const requestBodyMaxSize = 1 << 20

// Register wires up all routes on the provided Echo instance.
func Register(e *echo.Echo, tasks Tasks, contacts Contacts, session *board.SessionState, health Health, ready Readiness, logger *log.Logger) {
	e.Use(DecompressRequestMiddleware())

	e.GET("/api/tasks", getTasks(tasks, contacts, session, logger))
	e.GET("/api/tasks/:id", getTask(tasks, session))
	e.POST("/api/tasks", postTask(tasks))
	e.PATCH("/api/tasks/:id", patchTask(tasks))
	e.DELETE("/api/tasks/:id", deleteTask(tasks))
	e.POST("/api/tasks/:id/move", moveTask(tasks))
	e.POST("/api/tasks/:id/subtasks/:index/toggle", toggleSubtask(tasks))

	e.GET("/api/board", getBoard(tasks, contacts, session))

	e.GET("/api/contacts", getContacts(contacts))
	e.GET("/api/contacts/:id", getContact(contacts, session))
	e.POST("/api/contacts", postContact(contacts))
	e.PATCH("/api/contacts/:id", patchContact(contacts))
	e.DELETE("/api/contacts/:id", deleteContact(contacts))

	e.POST("/api/session/overlay/close", closeOverlay(session))
	e.POST("/api/session/reset", resetSession(session))

	e.GET("/healthz", healthz(health, ready))
}

type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type boardResponse struct {
	Columns []board.Column `json:"columns"`
}

type contactsResponse struct {
	Contacts []domain.Contact `json:"contacts"`
}

type healthResponse struct {
	Primed   bool `json:"primed"`
	Degraded bool `json:"degraded"`
}

func healthz(health Health, ready Readiness) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := healthResponse{Primed: ready.Primed(), Degraded: health.Degraded()}
		if !resp.Primed {
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func getTasks(tasks Tasks, contacts Contacts, session *board.SessionState, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, spanCtx := newSearchRequestMetrics(c.Request().Context(), logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		query := c.QueryParam("query")
		session.SetQuery(query)
		metrics.SetQueryProvided(query != "")

		filterStart := time.Now()
		matched := board.Filter(tasks.All(), contacts.All(), query)
		metrics.ObserveFilter(time.Since(filterStart))
		metrics.SetTasksReturned(len(matched))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasksResponse{Tasks: matched})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getBoard(tasks Tasks, contacts Contacts, session *board.SessionState) echo.HandlerFunc {
	return func(c echo.Context) error {
		query := c.QueryParam("query")
		session.SetQuery(query)
		matched := board.Filter(tasks.All(), contacts.All(), query)
		return c.JSON(http.StatusOK, boardResponse{Columns: board.Columns(matched)})
	}
}

func getTask(tasks Tasks, session *board.SessionState) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		task, err := tasks.Get(id)
		if err != nil {
			return intentError(c, err)
		}
		session.SelectTask(id)
		return c.JSON(http.StatusOK, task)
	}
}

func postTask(tasks Tasks) echo.HandlerFunc {
	return func(c echo.Context) error {
		var input board.CreateTaskInput
		if err := decodeBody(c, &input); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		// The column that triggered the create supplies the default
		// stage via the query string, like the plus icon per column.
		if input.Status == "" {
			input.Status = domain.TaskStatus(c.QueryParam("status"))
		}
		task, err := tasks.Create(c.Request().Context(), input)
		if err != nil {
			return intentError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(tasks Tasks) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task, err := tasks.Update(c.Request().Context(), c.Param("id"), patch)
		if err != nil {
			return intentError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(tasks Tasks) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := tasks.Remove(c.Request().Context(), c.Param("id")); err != nil {
			return intentError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type moveRequest struct {
	Status domain.TaskStatus `json:"status"`
}

func moveTask(tasks Tasks) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req moveRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task, err := tasks.SetStatus(c.Request().Context(), c.Param("id"), req.Status)
		if err != nil {
			return intentError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func toggleSubtask(tasks Tasks) echo.HandlerFunc {
	return func(c echo.Context) error {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid subtask index")
		}
		task, err := tasks.ToggleSubtask(c.Request().Context(), c.Param("id"), index)
		if err != nil {
			return intentError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func getContacts(contacts Contacts) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, contactsResponse{Contacts: contacts.All()})
	}
}

func getContact(contacts Contacts, session *board.SessionState) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		contact, err := contacts.Get(id)
		if err != nil {
			return intentError(c, err)
		}
		session.SelectContact(id)
		return c.JSON(http.StatusOK, contact)
	}
}

func postContact(contacts Contacts) echo.HandlerFunc {
	return func(c echo.Context) error {
		var input board.CreateContactInput
		if err := decodeBody(c, &input); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		contact, err := contacts.Create(c.Request().Context(), input)
		if err != nil {
			return intentError(c, err)
		}
		return c.JSON(http.StatusCreated, contact)
	}
}

func patchContact(contacts Contacts) echo.HandlerFunc {
	return func(c echo.Context) error {
		var patch domain.ContactPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		contact, err := contacts.Update(c.Request().Context(), c.Param("id"), patch)
		if err != nil {
			return intentError(c, err)
		}
		return c.JSON(http.StatusOK, contact)
	}
}

func deleteContact(contacts Contacts) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := contacts.Remove(c.Request().Context(), c.Param("id")); err != nil {
			return intentError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func closeOverlay(session *board.SessionState) echo.HandlerFunc {
	return func(c echo.Context) error {
		session.CloseOverlay()
		return c.NoContent(http.StatusNoContent)
	}
}

func resetSession(session *board.SessionState) echo.HandlerFunc {
	return func(c echo.Context) error {
		session.Reset()
		return c.NoContent(http.StatusNoContent)
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// intentError maps repository errors onto HTTP statuses: validation
// failures are the caller's fault, unknown ids are 404, anything else
// is a server error.
func intentError(c echo.Context, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.String(http.StatusBadRequest, verr.Error())
	}
	var nferr *domain.NotFoundError
	if errors.As(err, &nferr) {
		return c.String(http.StatusNotFound, nferr.Error())
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, err.Error())
}
