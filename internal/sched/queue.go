package sched

import (
	"container/heap"
	"sync"
)

// PriorityQueue is a thread-safe priority queue for render tasks.
// Tasks with lower Priority values are dequeued first.
// When priorities are equal, tasks are dequeued in FIFO order.
type PriorityQueue struct {
	mu       sync.Mutex
	items    taskHeap
	seq      uint64        // sequence number for FIFO ordering within same priority
	capacity int           // maximum queued tasks; 0 or negative means unbounded
	notify   chan struct{} // signaled when items are pushed
}

// NewPriorityQueue creates a new priority queue holding at most capacity
// tasks. A capacity of zero or less means the queue is unbounded.
func NewPriorityQueue(capacity int) *PriorityQueue {
	pq := &PriorityQueue{
		items:    make(taskHeap, 0),
		capacity: capacity,
		notify:   make(chan struct{}, 1), // buffered to avoid blocking Push
	}
	heap.Init(&pq.items)
	return pq
}

// Push adds a task to the queue.
// Returns ErrNilTask if task is nil, or ErrQueueFull if the queue is at
// capacity. The capacity check and insert happen under the same lock, so
// the bound holds under concurrent pushes.
func (pq *PriorityQueue) Push(task *Task) error {
	if task == nil {
		return ErrNilTask
	}

	pq.mu.Lock()
	if pq.capacity > 0 && pq.items.Len() >= pq.capacity {
		pq.mu.Unlock()
		return ErrQueueFull
	}
	pq.seq++
	item := &taskItem{
		task: task,
		seq:  pq.seq,
	}
	heap.Push(&pq.items, item)
	pq.mu.Unlock()

	// Signal waiting consumers (non-blocking)
	select {
	case pq.notify <- struct{}{}:
	default:
		// Channel already has a pending notification
	}
	return nil
}

// Pop removes and returns the most urgent task.
// Blocks until an item is available or the done channel is closed.
// Returns nil if done is closed while waiting.
func (pq *PriorityQueue) Pop(done <-chan struct{}) *Task {
	for {
		pq.mu.Lock()
		if pq.items.Len() > 0 {
			item := heap.Pop(&pq.items).(*taskItem)
			pq.mu.Unlock()
			return item.task
		}
		pq.mu.Unlock()

		select {
		case <-done:
			return nil
		case <-pq.notify:
			// Item may have been pushed, loop to check
		}
	}
}

// TryPop attempts to pop without blocking.
// Returns nil if queue is empty.
func (pq *PriorityQueue) TryPop() *Task {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if pq.items.Len() == 0 {
		return nil
	}

	item := heap.Pop(&pq.items).(*taskItem)
	return item.task
}

// Len returns the number of items in the queue.
func (pq *PriorityQueue) Len() int {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return pq.items.Len()
}

// taskItem wraps a Task with a sequence number for heap ordering.
type taskItem struct {
	task *Task
	seq  uint64 // for FIFO ordering within same priority
}

// taskHeap implements heap.Interface for render tasks.
// Lower priority values come first. Equal priorities use FIFO (lower seq first).
type taskHeap []*taskItem

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].task.Priority != h[j].task.Priority {
		return h[i].task.Priority < h[j].task.Priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*taskItem))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	*h = old[0 : n-1]
	return item
}
