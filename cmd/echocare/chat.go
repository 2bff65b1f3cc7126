package main

import (
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/echocare/internal/page"
	"github.com/suPer8Hu/echocare/internal/page/chat"
)

const chatHelp = `commands:
  /list             show conversations
  /new              start a new conversation
  /switch N         open conversation N
  /menu N           show options for conversation N
  /rename N NAME    rename conversation N
  /delete N         delete conversation N
  /logout           sign out
  /quit             leave without signing out
anything else is sent as a message
`

// printer writes only what changed since the previous view.
type printer struct {
	term *terminal

	mu      sync.Mutex
	active  int64
	shown   int
	typing  bool
	started bool
}

func (p *printer) render(v chat.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || v.ActiveID != p.active || len(v.Messages) < p.shown {
		p.started = true
		p.active = v.ActiveID
		p.shown = 0
		p.typing = false
		p.term.printf("── %s ──\n", v.ActiveName)
		if v.ShowWelcome {
			p.term.printf("Welcome. How are you feeling today?\n")
		}
	}
	for _, m := range v.Messages[p.shown:] {
		p.term.printf("%s\n", formatMessage(m))
	}
	p.shown = len(v.Messages)

	if v.Typing && !p.typing {
		p.term.printf("Echo Care is typing...\n")
	}
	p.typing = v.Typing
}

func formatMessage(m chat.Message) string {
	if m.Role == chat.RoleUser {
		return "you: " + m.Text
	}
	return "echo care: " + m.Text
}

func printList(t *terminal, v chat.View) {
	for i, it := range v.Items {
		mark := " "
		if it.Active {
			mark = "*"
		}
		t.printf("%s %d. %s\n", mark, i+1, it.Name)
		if it.MenuOpen {
			t.printf("     rename | delete\n")
		}
	}
}

// itemID resolves a 1-based list position.
func itemID(v chat.View, arg string) (int64, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(v.Items) {
		return 0, false
	}
	return v.Items[n-1].ID, true
}

// renameArgs splits "/rename N NAME" keeping NAME's inner spacing.
func renameArgs(line string) (pos, name string, ok bool) {
	_, rest, found := strings.Cut(strings.TrimSpace(line), " ")
	if !found {
		return "", "", false
	}
	rest = strings.TrimLeft(rest, " \t")
	i := strings.IndexAny(rest, " \t")
	if i < 0 {
		return "", "", false
	}
	pos, name = rest[:i], strings.TrimSpace(rest[i:])
	return pos, name, name != ""
}

func newChatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open your conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			out := &printer{term: e.term}
			nav := newNavigator()

			m, err := chat.Open(ctx, chat.Deps{
				Storage:   e.storage,
				Client:    e.client,
				Navigator: nav,
				Confirmer: e.term,
				Effects:   e.term,
				Clock:     page.RealClock,
				Logger:    e.log,
				OnRender:  out.render,
			})
			if errors.Is(err, chat.ErrNotAuthenticated) {
				return errors.New("not signed in; run `echocare login` first")
			}
			if err != nil {
				return err
			}
			defer m.Close()

			e.term.printf("Signed in as %s. Type /help for commands.\n", m.Username())
			out.render(m.View())

			for {
				line, ok := e.term.readLine("> ")
				if !ok || ctx.Err() != nil {
					return nil
				}
				if !strings.HasPrefix(line, "/") {
					m.Send(ctx, line)
					continue
				}

				fields := strings.Fields(line)
				v := m.View()
				switch fields[0] {
				case "/help":
					e.term.printf("%s", chatHelp)
				case "/list":
					printList(e.term, v)
				case "/new":
					m.NewChat(ctx)
				case "/switch", "/menu", "/delete":
					if len(fields) != 2 {
						e.term.printf("usage: %s N\n", fields[0])
						continue
					}
					id, ok := itemID(v, fields[1])
					if !ok {
						e.term.printf("no conversation %s\n", fields[1])
						continue
					}
					switch fields[0] {
					case "/switch":
						m.Switch(ctx, id)
					case "/menu":
						printList(e.term, m.OpenMenu(ctx, id))
					case "/delete":
						if _, deleted := m.Delete(ctx, id); deleted {
							printList(e.term, m.View())
						}
					}
				case "/rename":
					pos, name, ok := renameArgs(line)
					if !ok {
						e.term.printf("usage: /rename N NAME\n")
						continue
					}
					id, ok := itemID(v, pos)
					if !ok {
						e.term.printf("no conversation %s\n", pos)
						continue
					}
					m.BeginRename(ctx, id)
					printList(e.term, m.CommitRename(ctx, name))
				case "/logout":
					m.Logout(ctx)
					e.term.printf("Signed out. Redirected to %s.\n", <-nav.to)
					return nil
				case "/quit":
					return nil
				default:
					e.term.printf("unknown command %s; try /help\n", fields[0])
				}
			}
		},
	}
}
