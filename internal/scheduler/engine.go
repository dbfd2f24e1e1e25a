// Package scheduler fires reminder-due notifications at their due time.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidDueTime = errors.New("scheduler: invalid due time")
	ErrStopped        = errors.New("scheduler: engine stopped")
)

// Due is one reminder waiting for its time.
type Due struct {
	ReminderID string
	Title      string
	Priority   string
	DueAt      time.Time
}

type queueItem struct {
	due Due
	seq uint64
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].due.DueAt.Before(pq[j].due.DueAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

type pendingEntry struct {
	seq   uint64
	dueAt time.Time
}

// Engine keeps at most one pending entry per reminder id. Rescheduling or
// cancelling leaves the old heap item in place; it is skipped when popped.
type Engine struct {
	mu      sync.Mutex
	queue   priorityQueue
	pending map[string]pendingEntry
	seq     uint64
	out     chan Due
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:   make(priorityQueue, 0),
		pending: make(map[string]pendingEntry),
		out:     make(chan Due, bufferSize),
		wakeup:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// C delivers due reminders. It is closed after Stop.
func (e *Engine) C() <-chan Due {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule adds d, replacing any pending entry for the same reminder.
func (e *Engine) Schedule(d Due) error {
	if d.DueAt.IsZero() || d.ReminderID == "" {
		return ErrInvalidDueTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.scheduleLocked(d)
	e.signalWakeup()
	return nil
}

func (e *Engine) scheduleLocked(d Due) {
	if cur, ok := e.pending[d.ReminderID]; ok && cur.dueAt.Equal(d.DueAt) {
		return
	}
	e.seq++
	e.pending[d.ReminderID] = pendingEntry{seq: e.seq, dueAt: d.DueAt}
	heap.Push(&e.queue, queueItem{due: d, seq: e.seq})
}

func (e *Engine) Cancel(reminderID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, reminderID)
	e.signalWakeup()
}

// Replace makes set the complete pending schedule: entries not in set are
// cancelled, the rest scheduled or moved.
func (e *Engine) Replace(set []Due) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	keep := make(map[string]bool, len(set))
	for _, d := range set {
		if d.DueAt.IsZero() || d.ReminderID == "" {
			return ErrInvalidDueTime
		}
		keep[d.ReminderID] = true
	}
	for id := range e.pending {
		if !keep[id] {
			delete(e.pending, id)
		}
	}
	for _, d := range set {
		e.scheduleLocked(d)
	}
	e.signalWakeup()
	return nil
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.DueAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, d := range e.popDue(time.Now()) {
				select {
				case e.out <- d:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// peek returns the earliest live entry, discarding stale ones on the way.
func (e *Engine) peek() (Due, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) > 0 {
		if e.live(e.queue[0]) {
			return e.queue[0].due, true
		}
		heap.Pop(&e.queue)
	}
	return Due{}, false
}

func (e *Engine) live(item queueItem) bool {
	cur, ok := e.pending[item.due.ReminderID]
	return ok && cur.seq == item.seq
}

func (e *Engine) popDue(now time.Time) []Due {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Due, 0)
	for len(e.queue) > 0 {
		next := e.queue[0]
		if !e.live(next) {
			heap.Pop(&e.queue)
			continue
		}
		if next.due.DueAt.After(now) {
			break
		}
		heap.Pop(&e.queue)
		delete(e.pending, next.due.ReminderID)
		out = append(out, next.due)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
