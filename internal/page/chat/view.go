package chat

// ListItem is one row of the conversation sidebar.
type ListItem struct {
	ID       int64
	Name     string
	Active   bool
	MenuOpen bool
	// Editing replaces the name with an input seeded with EditValue.
	Editing   bool
	EditValue string
}

type View struct {
	Items       []ListItem
	ActiveID    int64
	ActiveName  string
	Messages    []Message
	ShowWelcome bool
	Typing      bool
	SwitchCue   bool
}

// Render projects s onto what the page displays.
func Render(s State) View {
	v := View{
		Items:     make([]ListItem, 0, len(s.Conversations)),
		ActiveID:  s.ActiveID,
		SwitchCue: s.SwitchCue,
	}
	for _, c := range s.Conversations {
		item := ListItem{
			ID:       c.ID,
			Name:     c.Name,
			Active:   c.ID == s.ActiveID,
			MenuOpen: s.MenuOpen && c.ID == s.OpenMenu,
		}
		if s.Renaming && c.ID == s.Editing {
			item.Editing = true
			item.EditValue = c.Name
		}
		v.Items = append(v.Items, item)
	}

	active := s.Active()
	v.ActiveName = active.Name
	v.Messages = append([]Message(nil), active.Messages...)
	v.ShowWelcome = len(active.Messages) == 0
	v.Typing = s.Typing[active.ID] > 0
	return v
}
