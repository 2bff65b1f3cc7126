package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// terminal serializes output from the prompt loop and from page timers.
type terminal struct {
	in *bufio.Scanner

	mu  sync.Mutex
	out io.Writer
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewScanner(in), out: out}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// readLine prompts and reads one line. ok is false at end of input.
func (t *terminal) readLine(prompt string) (line string, ok bool) {
	if prompt != "" {
		t.printf("%s", prompt)
	}
	if !t.in.Scan() {
		return "", false
	}
	return t.in.Text(), true
}

func (t *terminal) Confirm(_ context.Context, prompt string) bool {
	answer, ok := t.readLine(prompt + " [y/N] ")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (t *terminal) Transition(name string, d time.Duration) {
	t.printf("  ~ %s (%s) ~\n", name, d)
}

// navigator reports the first navigation target on a channel.
type navigator struct {
	once sync.Once
	to   chan string
}

func newNavigator() *navigator {
	return &navigator{to: make(chan string, 1)}
}

func (n *navigator) Navigate(path string) {
	n.once.Do(func() { n.to <- path })
}
