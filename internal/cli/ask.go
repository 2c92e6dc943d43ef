package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docchat/cli/internal/loop"
)

func newAskCmd(flags *globalFlags) *cobra.Command {
	var (
		documentID  string
		showSources bool
	)

	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask a question about one document, or all of them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := flags.setup()
			if err != nil {
				return err
			}
			defer rt.close()

			rt.selection.Select(documentID)
			session := rt.session()

			send := session.Send(cmd.Context(), strings.Join(args, " "))
			if send == nil {
				return errors.New("question is empty")
			}
			loop.Drain(send, session.Update)

			if msg := session.Err(); msg != "" {
				return errors.New(msg)
			}
			msgs := session.Messages()
			printf(cmd.OutOrStdout(), "%s\n", msgs[len(msgs)-1].Text)

			if showSources {
				for _, s := range session.LastContext() {
					printf(cmd.OutOrStdout(), "- %s\n", s)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&documentID, "doc", "d", "", "document id to scope the question to")
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "print the context passages the answer used")
	return cmd
}
