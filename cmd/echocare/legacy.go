package main

import (
	"github.com/spf13/cobra"

	"github.com/suPer8Hu/echocare/internal/page/legacy"
)

func newLegacyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "legacy",
		Short: "Single conversation answered by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			session := legacy.New(e.client)
			shown := 0
			for {
				line, ok := e.term.readLine("> ")
				if !ok || ctx.Err() != nil {
					return nil
				}
				if err := session.Send(ctx, line); err != nil {
					e.term.printf("(%v)\n", err)
				}
				lines := session.Transcript()
				for _, l := range lines[shown:] {
					e.term.printf("%s\n", l)
				}
				shown = len(lines)
			}
		},
	}
}
