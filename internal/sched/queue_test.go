package sched

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mustPush is a test helper that fails the test if Push errors.
func mustPush(t *testing.T, pq *PriorityQueue, task *Task) {
	t.Helper()
	if err := pq.Push(task); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
}

func TestPriorityQueue_BasicOrdering(t *testing.T) {
	pq := NewPriorityQueue(0)

	// Push in reverse urgency order.
	mustPush(t, pq, &Task{Page: 7, Priority: 1})
	mustPush(t, pq, &Task{Page: 5, Priority: 0})

	task := pq.TryPop()
	if task.Page != 5 {
		t.Errorf("expected priority-0 task (page 5), got page %d", task.Page)
	}

	task = pq.TryPop()
	if task.Page != 7 {
		t.Errorf("expected priority-1 task (page 7), got page %d", task.Page)
	}

	if pq.Len() != 0 {
		t.Errorf("expected empty queue, got %d items", pq.Len())
	}
}

func TestPriorityQueue_FIFOWithinPriority(t *testing.T) {
	pq := NewPriorityQueue(0)

	for page := 0; page < 5; page++ {
		mustPush(t, pq, &Task{Page: page, Priority: 1})
	}

	for page := 0; page < 5; page++ {
		task := pq.TryPop()
		if task.Page != page {
			t.Errorf("expected page %d, got %d", page, task.Page)
		}
	}
}

func TestPriorityQueue_NilTask(t *testing.T) {
	pq := NewPriorityQueue(0)
	if err := pq.Push(nil); err != ErrNilTask {
		t.Errorf("expected ErrNilTask, got %v", err)
	}
}

func TestPriorityQueue_PopBlocksUntilPush(t *testing.T) {
	pq := NewPriorityQueue(0)
	done := make(chan struct{})
	defer close(done)

	got := make(chan *Task, 1)
	go func() {
		got <- pq.Pop(done)
	}()

	// Give the consumer time to park.
	time.Sleep(10 * time.Millisecond)
	mustPush(t, pq, &Task{Page: 3, Priority: 0})

	select {
	case task := <-got:
		if task.Page != 3 {
			t.Errorf("expected page 3, got %d", task.Page)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestPriorityQueue_PopReturnsNilOnDone(t *testing.T) {
	pq := NewPriorityQueue(0)
	done := make(chan struct{})

	got := make(chan *Task, 1)
	go func() {
		got <- pq.Pop(done)
	}()

	close(done)

	select {
	case task := <-got:
		if task != nil {
			t.Errorf("expected nil, got %v", task)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after done closed")
	}
}

func TestPriorityQueue_ConcurrentPushPop(t *testing.T) {
	pq := NewPriorityQueue(0)
	done := make(chan struct{})
	defer close(done)

	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := pq.Push(&Task{Page: p*perProducer + i, Priority: i % 2}); err != nil {
					t.Errorf("Push failed: %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := 0; i < producers*perProducer; i++ {
		task := pq.Pop(done)
		if task == nil {
			t.Fatal("unexpected nil from Pop")
		}
		if seen[task.Page] {
			t.Fatalf("page %d popped twice", task.Page)
		}
		seen[task.Page] = true
	}
	if pq.Len() != 0 {
		t.Errorf("expected empty queue, got %d", pq.Len())
	}
}

func TestPriorityQueue_CapacityBound(t *testing.T) {
	const (
		capacity    = 8
		producers   = 4
		perProducer = 50
	)
	pq := NewPriorityQueue(capacity)

	var accepted, rejected atomic.Int32
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				err := pq.Push(&Task{Page: p*perProducer + i, Priority: i % 2})
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, ErrQueueFull):
					rejected.Add(1)
				default:
					t.Errorf("unexpected Push error: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()

	if got := pq.Len(); got != capacity {
		t.Errorf("expected queue length %d, got %d", capacity, got)
	}
	if got := accepted.Load(); got != capacity {
		t.Errorf("expected exactly %d accepted pushes, got %d", capacity, got)
	}
	if total := accepted.Load() + rejected.Load(); total != producers*perProducer {
		t.Errorf("expected %d push results, got %d", producers*perProducer, total)
	}
}

func TestPriorityQueue_Unbounded(t *testing.T) {
	pq := NewPriorityQueue(0)
	for i := 0; i < 2048; i++ {
		mustPush(t, pq, &Task{Page: i})
	}
	if got := pq.Len(); got != 2048 {
		t.Errorf("expected 2048 queued tasks, got %d", got)
	}
}

func BenchmarkPriorityQueue_Push(b *testing.B) {
	pq := NewPriorityQueue(0)
	tasks := make([]*Task, b.N)
	for i := range tasks {
		tasks[i] = &Task{Page: i, Priority: i % 2}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := pq.Push(tasks[i]); err != nil {
			b.Fatal(fmt.Errorf("push: %w", err))
		}
	}
}
