package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ujjwalcurry30/Task-Tracker/internal/middleware"
	"github.com/ujjwalcurry30/Task-Tracker/internal/taskquery"
	"github.com/ujjwalcurry30/Task-Tracker/internal/tasks"
	ws "github.com/ujjwalcurry30/Task-Tracker/internal/websocket"
	"github.com/ujjwalcurry30/Task-Tracker/pkg/logger"
)

// TaskHandler melayani endpoint task. Semua operasinya memakai caller id dari
// token (lihat middleware.RequireAuth); id dari body/query tidak pernah
// dipakai untuk otorisasi.
type TaskHandler struct {
	Tasks *tasks.Store
	Hub   *ws.Hub
}

func NewTaskHandler(taskStore *tasks.Store, hub *ws.Hub) *TaskHandler {
	return &TaskHandler{Tasks: taskStore, Hub: hub}
}

// parseDueDate menerima RFC3339 atau tanggal polos YYYY-MM-DD.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// List mengembalikan task yang boleh dilihat caller, difilter status /
// search / assignedTo, terbaru lebih dulu.
func (h *TaskHandler) List(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)

	filter := taskquery.Scoped(callerID, c.Query("status"), c.Query("search"), c.Query("assignedTo"))
	result, err := h.Tasks.List(c.Context(), filter)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"message": "Failed to load tasks."})
	}

	return c.JSON(result)
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)

	type CreateTaskRequest struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		DueDate     string `json:"due_date"`
		Priority    string `json:"priority"`
		Status      string `json:"status"`
		AssignedTo  *int   `json:"assigned_to"`
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{"message": "Title is required."})
	}

	params := tasks.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	}
	if req.DueDate != "" {
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"message": "Invalid due date."})
		}
		params.DueDate = &due
	}

	// Owner selalu caller, apa pun isi body request
	task, err := h.Tasks.Create(c.Context(), callerID, params)
	if err != nil {
		return h.taskError(c, err, "Failed to create task.")
	}

	logger.AuditLogger.Info("Task created", zap.Int("task_id", task.ID), zap.Int("owner_id", callerID))
	h.Hub.Notify(ws.EventTaskCreated, *task)
	return c.Status(201).JSON(task)
}

func (h *TaskHandler) Get(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		// ID yang bukan angka diperlakukan sama dengan task yang tidak ada
		return c.Status(404).JSON(fiber.Map{"message": "Task not found."})
	}

	task, err := h.Tasks.Get(c.Context(), callerID, taskID)
	if err != nil {
		return h.taskError(c, err, "Failed to load task.")
	}
	return c.JSON(task)
}

func (h *TaskHandler) Update(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"message": "Task not found."})
	}

	// Pointer menandakan field yang dikirim; field yang absen tidak diubah
	type UpdateTaskRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"due_date"`
		Priority    *string `json:"priority"`
		Status      *string `json:"status"`
		AssignedTo  *int    `json:"assigned_to"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{"message": "Bad request."})
	}

	params := tasks.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			params.ClearDueDate = true
		} else {
			due, err := parseDueDate(*req.DueDate)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"message": "Invalid due date."})
			}
			params.DueDate = &due
		}
	}

	task, err := h.Tasks.Update(c.Context(), callerID, taskID, params)
	if errors.Is(err, tasks.ErrNotFound) {
		// Bisa berarti task tidak ada ATAU caller tidak berhak; client tidak
		// diberi tahu bedanya, tapi tercatat untuk audit
		logger.SecurityLogger.Warn("Task update denied or missing",
			zap.Int("caller_id", callerID), zap.Int("task_id", taskID))
		return c.Status(404).JSON(fiber.Map{"message": "Task not found."})
	}
	if err != nil {
		return h.taskError(c, err, "Failed to update task.")
	}

	logger.AuditLogger.Info("Task updated", zap.Int("task_id", taskID), zap.Int("caller_id", callerID))
	h.Hub.Notify(ws.EventTaskUpdated, *task)
	return c.JSON(task)
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	callerID := middleware.CallerID(c)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"message": "Task not found."})
	}

	// Ambil dulu datanya untuk event notification; best effort saja
	deleted, _ := h.Tasks.Get(c.Context(), callerID, taskID)

	if err := h.Tasks.Delete(c.Context(), callerID, taskID); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			logger.SecurityLogger.Warn("Task delete denied or missing",
				zap.Int("caller_id", callerID), zap.Int("task_id", taskID))
			return c.Status(404).JSON(fiber.Map{"message": "Task not found."})
		}
		return h.taskError(c, err, "Failed to delete task.")
	}

	logger.AuditLogger.Info("Task deleted", zap.Int("task_id", taskID), zap.Int("caller_id", callerID))
	if deleted != nil {
		h.Hub.Notify(ws.EventTaskDeleted, *deleted)
	}
	return c.JSON(fiber.Map{"message": "Task deleted."})
}

// taskError memetakan error dari store ke status + pesan yang terdokumentasi.
func (h *TaskHandler) taskError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"message": "Task not found."})
	case errors.Is(err, tasks.ErrTitleRequired):
		return c.Status(400).JSON(fiber.Map{"message": "Title is required."})
	case errors.Is(err, tasks.ErrInvalidPriority):
		return c.Status(400).JSON(fiber.Map{"message": "Invalid priority."})
	case errors.Is(err, tasks.ErrInvalidStatus):
		return c.Status(400).JSON(fiber.Map{"message": "Invalid status."})
	default:
		logger.ErrorLogger.Error("Task store error", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"message": fallback})
	}
}
