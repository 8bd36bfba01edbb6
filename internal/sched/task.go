// Package sched runs render tasks on a bounded worker pool, dispatching
// lower priority values first.
package sched

import (
	"errors"
	"image"

	"github.com/jackzampolin/leaf/internal/document"
)

// ErrQueueFull is returned when the render queue is at capacity.
var ErrQueueFull = errors.New("render queue full")

// ErrNilTask is returned when attempting to push a nil task.
var ErrNilTask = errors.New("cannot push nil task")

// Task is one page render request.
type Task struct {
	Doc      *document.Document
	Page     int
	Scale    float64
	Priority int // lower dispatches first

	// Reply receives the render result. Must be non-nil and should be
	// buffered generously; a worker that cannot deliver a result parks
	// until the pool shuts down.
	Reply chan<- Result
}

// Result pairs a finished task with its bitmap or error.
type Result struct {
	Task  *Task
	Image image.Image
	Err   error
}
