package chat

import (
	"fmt"
	"strings"
)

// State is everything the chat page knows. Only Conversations is persisted.
type State struct {
	Conversations []Conversation
	ActiveID      int64

	// Detached is the active conversation when the collection was emptied by
	// a delete. It joins the collection once something is sent to it.
	Detached *Conversation

	// OpenMenu and Editing name a conversation only while MenuOpen or
	// Renaming is set; zero is a valid stored ID.
	OpenMenu  int64
	MenuOpen  bool
	Editing   int64
	Renaming  bool
	Typing    map[int64]int
	SwitchCue bool
}

// NewState starts from a loaded collection, falling back to one empty
// default conversation. The first conversation is active.
func NewState(convs []Conversation, defaultID int64) State {
	if len(convs) == 0 {
		convs = []Conversation{newConversation(defaultID, DefaultName)}
	}
	s := State{Typing: map[int64]int{}}
	s.Conversations = convs
	s.ActiveID = convs[0].ID
	return s.clone()
}

func (s State) clone() State {
	out := s
	out.Conversations = make([]Conversation, len(s.Conversations))
	for i, c := range s.Conversations {
		c.Messages = append(make([]Message, 0, len(c.Messages)), c.Messages...)
		out.Conversations[i] = c
	}
	if s.Detached != nil {
		d := *s.Detached
		d.Messages = append(make([]Message, 0, len(d.Messages)), d.Messages...)
		out.Detached = &d
	}
	out.Typing = make(map[int64]int, len(s.Typing))
	for k, v := range s.Typing {
		out.Typing[k] = v
	}
	return out
}

func (s State) index(id int64) int {
	for i, c := range s.Conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Active returns the conversation currently displayed.
func (s State) Active() Conversation {
	if i := s.index(s.ActiveID); i >= 0 {
		return s.Conversations[i]
	}
	if s.Detached != nil && s.Detached.ID == s.ActiveID {
		return *s.Detached
	}
	return Conversation{}
}

// Find looks a conversation up in the collection.
func (s State) Find(id int64) (Conversation, bool) {
	if i := s.index(id); i >= 0 {
		return s.Conversations[i], true
	}
	return Conversation{}, false
}

func (s *State) closeMenu() {
	s.OpenMenu, s.MenuOpen = 0, false
}

func (s *State) stopEditing() {
	s.Editing, s.Renaming = 0, false
}

// Action is one state transition. apply must not modify its input.
type Action interface {
	apply(s State) (next State, changed bool)
}

// Reduce applies a to s. changed reports whether the persisted collection
// differs and must be written out.
func Reduce(s State, a Action) (State, bool) {
	return a.apply(s)
}

type NewChat struct {
	ID int64
}

func (a NewChat) apply(s State) (State, bool) {
	n := s.clone()
	c := newConversation(a.ID, fmt.Sprintf("Chat %d", len(n.Conversations)+1))
	n.Conversations = append(n.Conversations, c)
	n.ActiveID = c.ID
	n.Detached = nil
	n.closeMenu()
	n.stopEditing()
	return n, true
}

type Rename struct {
	ID   int64
	Name string
}

func (a Rename) apply(s State) (State, bool) {
	i := s.index(a.ID)
	name := strings.TrimSpace(a.Name)
	if i < 0 || name == "" || name == s.Conversations[i].Name {
		return s, false
	}
	n := s.clone()
	n.Conversations[i].Name = name
	return n, true
}

type Delete struct {
	ID int64
	// FreshID names the default conversation created when the last one goes.
	FreshID int64
}

func (a Delete) apply(s State) (State, bool) {
	i := s.index(a.ID)
	if i < 0 {
		return s, false
	}
	n := s.clone()
	n.Conversations = append(n.Conversations[:i], n.Conversations[i+1:]...)
	delete(n.Typing, a.ID)
	n.closeMenu()
	if n.Renaming && n.Editing == a.ID {
		n.stopEditing()
	}
	if n.ActiveID == a.ID {
		if len(n.Conversations) > 0 {
			n.ActiveID = n.Conversations[0].ID
		} else {
			d := newConversation(a.FreshID, DefaultName)
			n.Detached = &d
			n.ActiveID = d.ID
		}
	}
	return n, true
}

type Switch struct {
	ID int64
}

func (a Switch) apply(s State) (State, bool) {
	if s.index(a.ID) < 0 {
		return s, false
	}
	n := s.clone()
	n.ActiveID = a.ID
	n.Detached = nil
	n.closeMenu()
	n.SwitchCue = true
	return n, false
}

type SendMessage struct {
	ConversationID int64
	Text           string
}

func (a SendMessage) apply(s State) (State, bool) {
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return s, false
	}
	n := s.clone()
	i := n.adopt(a.ConversationID)
	if i < 0 {
		return s, false
	}
	n.Conversations[i].Messages = append(n.Conversations[i].Messages, Message{Role: RoleUser, Text: text})
	n.Typing[a.ConversationID]++
	return n, true
}

type ReceiveReply struct {
	ConversationID int64
	Text           string
}

func (a ReceiveReply) apply(s State) (State, bool) {
	n := s.clone()
	if n.Typing[a.ConversationID] > 1 {
		n.Typing[a.ConversationID]--
	} else {
		delete(n.Typing, a.ConversationID)
	}
	i := n.adopt(a.ConversationID)
	if i < 0 {
		return n, false
	}
	n.Conversations[i].Messages = append(n.Conversations[i].Messages, Message{Role: RoleAssistant, Text: a.Text})
	return n, true
}

// adopt returns the collection index of id, moving the detached
// conversation into the collection when it is the target. Call on a clone.
func (s *State) adopt(id int64) int {
	if i := s.index(id); i >= 0 {
		return i
	}
	if s.Detached != nil && s.Detached.ID == id {
		s.Conversations = append(s.Conversations, *s.Detached)
		s.Detached = nil
		return len(s.Conversations) - 1
	}
	return -1
}

// OpenMenu opens one options menu; any other open menu closes.
type OpenMenu struct {
	ID int64
}

func (a OpenMenu) apply(s State) (State, bool) {
	if s.index(a.ID) < 0 {
		return s, false
	}
	n := s.clone()
	n.OpenMenu, n.MenuOpen = a.ID, true
	return n, false
}

// CloseMenus is a click outside any menu or options control.
type CloseMenus struct{}

func (CloseMenus) apply(s State) (State, bool) {
	if !s.MenuOpen {
		return s, false
	}
	n := s.clone()
	n.closeMenu()
	return n, false
}

type BeginRename struct {
	ID int64
}

func (a BeginRename) apply(s State) (State, bool) {
	if s.index(a.ID) < 0 {
		return s, false
	}
	n := s.clone()
	n.closeMenu()
	n.Editing, n.Renaming = a.ID, true
	return n, false
}

// CommitRename ends editing (blur or Enter) with the field's value.
type CommitRename struct {
	Value string
}

func (a CommitRename) apply(s State) (State, bool) {
	if !s.Renaming {
		return s, false
	}
	n := s.clone()
	id := n.Editing
	n.stopEditing()
	return Rename{ID: id, Name: a.Value}.apply(n)
}

type ClearSwitchCue struct{}

func (ClearSwitchCue) apply(s State) (State, bool) {
	if !s.SwitchCue {
		return s, false
	}
	n := s.clone()
	n.SwitchCue = false
	return n, false
}
