package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskhub/internal/apierr"
	"taskhub/internal/auth"
	"taskhub/internal/model"
	"taskhub/internal/service"
)

// TaskHandler handles ownership-scoped task endpoints.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

// UpdateTaskRequest represents a partial task update. Absent fields stay
// untouched.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Deadline    *string `json:"deadline"`
	IsCompleted *bool   `json:"isCompleted"`
}

// List godoc
// @Summary List all tasks owned by the caller
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /tasks/ [get]
func (h *TaskHandler) List(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apierr.Unauthorized("unauthorized request")
	}

	tasks, err := h.tasks.List(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return respond(c, http.StatusOK, tasks, "Tasks fetched successfully")
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /tasks/ [post]
func (h *TaskHandler) Create(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apierr.Unauthorized("unauthorized request")
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apierr.BadRequest("title is required")
	}

	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return apierr.BadRequest("invalid deadline")
	}

	task, err := h.tasks.Create(c.Request().Context(), user.ID, req.Title, req.Description, deadline)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, task, "Task created successfully")
}

// Update godoc
// @Summary Partially update an owned task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apierr.Unauthorized("unauthorized request")
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid request body")
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}
	if req.Deadline != nil {
		deadline, err := parseDeadline(*req.Deadline)
		if err != nil || deadline == nil {
			return apierr.BadRequest("invalid deadline")
		}
		update.Deadline = deadline
	}

	task, err := h.tasks.Update(c.Request().Context(), user.ID, id, update)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, task, "Task updated successfully")
}

// Delete godoc
// @Summary Delete an owned task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apierr.Unauthorized("unauthorized request")
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.Delete(c.Request().Context(), user.ID, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, task, "Task deleted successfully")
}

// ToggleCompletion godoc
// @Summary Toggle the completed flag of an owned task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /tasks/{id} [post]
func (h *TaskHandler) ToggleCompletion(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apierr.Unauthorized("unauthorized request")
	}

	id, err := parseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.ToggleCompletion(c.Request().Context(), user.ID, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, task, "Task completion toggled successfully")
}

// parseTaskID validates the path id structurally before any query runs.
func parseTaskID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierr.BadRequest("invalid task id")
	}
	return id, nil
}

// parseDeadline accepts RFC 3339 timestamps or bare dates. Empty input means
// no deadline.
func parseDeadline(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
