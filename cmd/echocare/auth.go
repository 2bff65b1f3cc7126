package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/echocare/internal/page"
	"github.com/suPer8Hu/echocare/internal/page/auth"
)

func newAuthCmd(opts *options, use string, register bool) *cobra.Command {
	var username, password string

	short := "Sign in and remember the session"
	if register {
		short = "Create an account and sign in"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			nav := newNavigator()
			ctl := auth.New(auth.Deps{
				Client:    e.client,
				Storage:   e.storage,
				Navigator: nav,
				Effects:   e.term,
				Clock:     page.RealClock,
				Logger:    e.log,
			})
			defer ctl.Close()
			if register {
				ctl.Toggle()
			}

			ctx := cmd.Context()
			for {
				u, p := username, password
				if u == "" {
					line, ok := e.term.readLine("Username: ")
					if !ok {
						return errors.New("no credentials given")
					}
					u = line
				}
				if p == "" {
					line, ok := e.term.readLine("Password: ")
					if !ok {
						return errors.New("no credentials given")
					}
					p = line
				}

				e.term.printf("[%s]\n", ctl.ButtonLabel())
				if err := ctl.Submit(ctx, u, p); err != nil {
					return err
				}
				if msg := ctl.Message(); msg != "" {
					e.term.printf("%s\n", msg)
					// flags were rejected; fall back to prompting
					username, password = "", ""
					continue
				}
				break
			}

			select {
			case path := <-nav.to:
				name, _, _ := e.storage.Get(ctx, page.UsernameKey)
				e.term.printf("Signed in as %s. Run `echocare chat` to open %s.\n", name, path)
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}
