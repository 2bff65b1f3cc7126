package page_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/suPer8Hu/echocare/internal/page"
	"github.com/suPer8Hu/echocare/internal/page/pagetest"
)

func TestTasks_RunAfterDelay(t *testing.T) {
	clk := pagetest.NewClock()
	tasks := page.NewTasks(clk)

	ran := 0
	tasks.After("conv:1", 900*time.Millisecond, func() { ran++ })
	assert.Equal(t, 1, tasks.Pending("conv:1"))

	clk.Advance(899 * time.Millisecond)
	assert.Equal(t, 0, ran)

	clk.Advance(time.Millisecond)
	assert.Equal(t, 1, ran)
	assert.Equal(t, 0, tasks.Pending("conv:1"))
}

func TestTasks_CancelGroup(t *testing.T) {
	clk := pagetest.NewClock()
	tasks := page.NewTasks(clk)

	var got []string
	tasks.After("a", time.Second, func() { got = append(got, "a1") })
	tasks.After("a", 2*time.Second, func() { got = append(got, "a2") })
	tasks.After("b", time.Second, func() { got = append(got, "b") })

	tasks.Cancel("a")
	clk.Advance(3 * time.Second)
	assert.Equal(t, []string{"b"}, got)
}

func TestTasks_CancelSingle(t *testing.T) {
	clk := pagetest.NewClock()
	tasks := page.NewTasks(clk)

	var got []int
	cancel := tasks.After("g", time.Second, func() { got = append(got, 1) })
	tasks.After("g", time.Second, func() { got = append(got, 2) })
	cancel()

	clk.Advance(time.Second)
	assert.Equal(t, []int{2}, got)
}

func TestTasks_CloseIgnoresLaterSchedules(t *testing.T) {
	clk := pagetest.NewClock()
	tasks := page.NewTasks(clk)

	ran := false
	tasks.After("g", time.Second, func() { ran = true })
	tasks.Close()
	tasks.After("g", time.Second, func() { ran = true })

	clk.Advance(2 * time.Second)
	assert.False(t, ran)
}

func TestChatsKey(t *testing.T) {
	assert.Equal(t, "echocare_chats_alice", page.ChatsKey("alice"))
}
