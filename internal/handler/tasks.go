package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/menezmethod/macrofx/internal/apierror"
	"github.com/menezmethod/macrofx/internal/nominal"
)

// Task statuses.
const (
	TaskPending = "pending"
	TaskDone    = "done"
)

// Task is an item on the board.
type Task struct {
	ID     nominal.TaskID   `json:"id"`
	Title  nominal.NonEmpty `json:"title"`
	Status string           `json:"status"`
}

// TaskBoard keeps tasks in memory in creation order.
type TaskBoard struct {
	mu    sync.RWMutex
	tasks []Task
}

// NewTaskBoard returns an empty board.
func NewTaskBoard() *TaskBoard {
	return &TaskBoard{}
}

// Create adds a pending task.
func (b *TaskBoard) Create(title nominal.NonEmpty) Task {
	t := Task{
		ID:     nominal.TaskID("task-" + uuid.NewString()),
		Title:  title,
		Status: TaskPending,
	}
	b.mu.Lock()
	b.tasks = append(b.tasks, t)
	b.mu.Unlock()
	return t
}

// List returns a copy of all tasks.
func (b *TaskBoard) List() []Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Task{}, b.tasks...)
}

// ListTasks returns every task.
//
//	GET /tasks
func ListTasks(w http.ResponseWriter, c Ctx) {
	writeJSON(w, http.StatusOK, map[string][]Task{"tasks": c.Base.Tasks.List()})
}

// CreateTask adds a task from a JSON or form body with a "title" field.
//
//	POST /tasks
func CreateTask(w http.ResponseWriter, c Ctx) {
	var raw string
	if strings.Contains(c.Req.Header.Get("Content-Type"), "application/json") {
		var in struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, c.Req.Body, maxBodyBytes)).Decode(&in); err != nil {
			c.Base.Logger.Warn("invalid task body", "err", err)
			apierror.Write(w, apierror.InvalidRequest("Invalid JSON in request body."))
			return
		}
		raw = in.Title
	} else {
		c.Req.Body = http.MaxBytesReader(w, c.Req.Body, maxBodyBytes)
		raw = c.Req.PostFormValue("title")
	}

	title, err := nominal.NewNonEmpty(strings.TrimSpace(raw))
	if err != nil {
		apierror.Write(w, apierror.InvalidParam("title", "title is required and must not be empty"))
		return
	}

	task := c.Base.Tasks.Create(title)
	c.Base.Logger.Info("task created", "id", string(task.ID))
	writeJSON(w, http.StatusCreated, map[string]Task{"task": task})
}
