// Package pagetest provides deterministic doubles for page controllers.
package pagetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/suPer8Hu/echocare/internal/page"
)

// Clock only moves when Advance is called; due callbacks run synchronously
// on the caller's goroutine, ordered by deadline.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*timer
}

type timer struct {
	c       *Clock
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, f func()) page.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &timer{c: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d, firing every timer that comes due.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*timer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.fn()
	}
}

type Navigator struct {
	mu    sync.Mutex
	Paths []string
}

func (n *Navigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Paths = append(n.Paths, path)
}

// Last returns the most recent navigation target, or "".
func (n *Navigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Paths) == 0 {
		return ""
	}
	return n.Paths[len(n.Paths)-1]
}

type Transition struct {
	Name     string
	Duration time.Duration
	At       time.Time
}

type Effects struct {
	Clock *Clock

	mu     sync.Mutex
	Played []Transition
}

func (e *Effects) Transition(name string, d time.Duration) {
	var at time.Time
	if e.Clock != nil {
		at = e.Clock.Now()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Played = append(e.Played, Transition{Name: name, Duration: d, At: at})
}

// Confirmer answers every prompt with Answer and records the prompts.
type Confirmer struct {
	Answer  bool
	Prompts []string
}

func (c *Confirmer) Confirm(_ context.Context, prompt string) bool {
	c.Prompts = append(c.Prompts, prompt)
	return c.Answer
}
