package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/docchat/cli/internal/loop"
	"github.com/docchat/cli/internal/upload"
)

func newUploadCmd(flags *globalFlags) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload a PDF or text document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := flags.setup()
			if err != nil {
				return err
			}
			defer rt.close()

			// No program loop to post the auto-clear into; the process exits
			// long before it would fire.
			mgr := rt.uploads(nil)
			if err := mgr.Select(args[0]); err != nil {
				return err
			}
			if !quiet {
				printf(cmd.ErrOrStderr(), "Uploading %s\n", mgr.File().Describe())
			}

			last := -1
			update := fanOut(mgr, rt.store)
			loop.Drain(mgr.Submit(cmd.Context()), func(msg tea.Msg) tea.Cmd {
				next := update(msg)
				if p := mgr.Progress(); !quiet && mgr.Busy() && p != last {
					last = p
					printf(cmd.ErrOrStderr(), "\r%3d%%", p)
				}
				return next
			})
			if !quiet && last >= 0 {
				printf(cmd.ErrOrStderr(), "\n")
			}

			if mgr.Phase() != upload.Succeeded {
				return errors.New(mgr.Message())
			}
			printf(cmd.OutOrStdout(), "%s\n", mgr.Message())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")
	return cmd
}
