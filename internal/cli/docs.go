package cli

import (
	"errors"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docchat/cli/internal/loop"
)

func newDocsCmd(flags *globalFlags) *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "List and delete uploaded documents",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List uploaded documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := flags.setup()
			if err != nil {
				return err
			}
			defer rt.close()

			loop.Drain(rt.store.Refresh(cmd.Context()), rt.store.Update)
			if msg := rt.store.Err(); msg != "" {
				return errors.New(msg)
			}

			all := rt.store.Documents()
			if len(all) == 0 {
				printf(cmd.OutOrStdout(), "No documents uploaded yet.\n")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			printf(w, "ID\tFILENAME\n")
			for _, d := range all {
				printf(w, "%s\t%s\n", d.ID, d.Filename)
			}
			return w.Flush()
		},
	}

	rm := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := flags.setup()
			if err != nil {
				return err
			}
			defer rt.close()

			loop.Drain(rt.store.Remove(cmd.Context(), args[0]), rt.store.Update)
			if msg := rt.store.Err(); msg != "" {
				return errors.New(msg)
			}
			printf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	docs.AddCommand(list, rm)
	return docs
}
