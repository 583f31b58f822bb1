package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Queue enqueues tasks and tracks their status and results.
type Queue interface {
	// Enqueue adds a task to the queue and returns its ID.
	Enqueue(ctx context.Context, taskType TaskType, documentID string, payload interface{}) (string, error)

	// EnqueueIn adds a task after a delay.
	EnqueueIn(ctx context.Context, taskType TaskType, documentID string, payload interface{}, delay time.Duration) (string, error)

	// GetTask fetches a task by ID.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// GetTasksByDocument returns all tasks for a document.
	GetTasksByDocument(ctx context.Context, documentID string) ([]*Task, error)

	// WaitForTask blocks until the task completes or fails. A zero
	// timeout waits indefinitely.
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, taskID string) error

	// UpdateTaskStatus moves a task to a new status, optionally
	// recording a result or error.
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// Close releases queue connections.
	Close() error
}

// Handler executes tasks of the types it declares.
type Handler interface {
	// ProcessTask runs the task.
	ProcessTask(ctx context.Context, task *Task) error

	// TaskTypes returns the task types this handler serves.
	TaskTypes() []TaskType
}

// Worker runs handlers against the queue.
type Worker interface {
	// RegisterHandler binds a handler to a task type.
	RegisterHandler(taskType TaskType, handler Handler)

	// Start begins processing tasks.
	Start() error

	// Stop drains and shuts the worker down.
	Stop()
}

// Config holds queue settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	RetryLimit    int
	RetryDelay    time.Duration
	Queues        map[string]int // queue name to priority
}

// DefaultConfig returns the default queue settings.
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		Concurrency: 10,
		RetryLimit:  3,
		RetryDelay:  time.Minute,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}
}

// TaskInfo is the client-facing view of a task.
type TaskInfo struct {
	ID          string     `json:"id"`
	Type        TaskType   `json:"type"`
	DocumentID  string     `json:"documentId"`
	Status      TaskStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewTaskInfo builds a TaskInfo from a Task.
func NewTaskInfo(task *Task) *TaskInfo {
	return &TaskInfo{
		ID:          task.ID,
		Type:        task.Type,
		DocumentID:  task.DocumentID,
		Status:      task.Status,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
}

// TaskError is a queue-level error.
type TaskError string

func (e TaskError) Error() string {
	return string(e)
}

var (
	ErrTaskNotFound   = TaskError("task not found")
	ErrTaskTimeout    = TaskError("task timed out")
	ErrInvalidPayload = TaskError("invalid task payload")
)

// MarshalPayload serializes a task payload as JSON.
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload deserializes a task payload.
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Factory builds a queue from a Config.
type Factory func(cfg *Config) (Queue, error)

var queueFactories = make(map[string]Factory)

// RegisterQueueFactory makes a queue implementation available by name.
func RegisterQueueFactory(name string, factory Factory) {
	queueFactories[name] = factory
}

// NewQueue creates the queue registered under name.
func NewQueue(name string, cfg *Config) (Queue, error) {
	factory, exists := queueFactories[name]
	if !exists {
		return nil, fmt.Errorf("unknown queue implementation: %s", name)
	}
	return factory(cfg)
}
