package page

import (
	"sync"
	"time"
)

type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is backed by the time package.
var RealClock Clock = realClock{}

// Tasks runs delayed callbacks grouped by an owner key (a conversation, a
// session). Cancelling a group guarantees none of its callbacks run
// afterwards, even if the underlying timer had already fired.
type Tasks struct {
	clock Clock

	mu     sync.Mutex
	seq    uint64
	groups map[string]map[uint64]Timer
	closed bool
}

func NewTasks(clock Clock) *Tasks {
	if clock == nil {
		clock = RealClock
	}
	return &Tasks{clock: clock, groups: make(map[string]map[uint64]Timer)}
}

// After schedules fn in group after d. The returned func cancels just this task.
func (t *Tasks) After(group string, d time.Duration, fn func()) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return func() {}
	}

	t.seq++
	id := t.seq
	timer := t.clock.AfterFunc(d, func() {
		if t.take(group, id) {
			fn()
		}
	})
	g, ok := t.groups[group]
	if !ok {
		g = make(map[uint64]Timer)
		t.groups[group] = g
	}
	g[id] = timer

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if g, ok := t.groups[group]; ok {
			if tm, ok := g[id]; ok {
				tm.Stop()
				t.drop(group, id)
			}
		}
	}
}

// take claims a fired task; false means it was cancelled meanwhile.
func (t *Tasks) take(group string, id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.groups[group]
	if !ok {
		return false
	}
	if _, ok := g[id]; !ok {
		return false
	}
	t.drop(group, id)
	return true
}

func (t *Tasks) drop(group string, id uint64) {
	g := t.groups[group]
	delete(g, id)
	if len(g) == 0 {
		delete(t.groups, group)
	}
}

// Pending reports how many tasks in group have not run or been cancelled.
func (t *Tasks) Pending(group string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.groups[group])
}

func (t *Tasks) Cancel(group string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tm := range t.groups[group] {
		tm.Stop()
	}
	delete(t.groups, group)
}

// CancelAll cancels every group. Tasks scheduled after Close are ignored.
func (t *Tasks) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, g := range t.groups {
		for _, tm := range g {
			tm.Stop()
		}
	}
	t.groups = make(map[string]map[uint64]Timer)
}

func (t *Tasks) Close() {
	t.CancelAll()
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}
