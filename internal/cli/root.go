// Package cli is the docchat command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docchat/cli/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
)

// interactive reports whether both ends of the session are a terminal.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRootCmd builds the command tree. Without a subcommand it starts the
// terminal UI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "docchat",
		Short: "Upload documents and ask questions about them",
		Long: `docchat talks to a document question-answering backend. Run it in a
terminal for the interactive UI, or use the subcommands from scripts.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !interactive() {
				return errors.New("not a terminal; use a subcommand (see docchat --help)")
			}
			return runTUI(cmd, flags)
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file path (default is $HOME/.docchat/config.yaml)")
	root.PersistentFlags().StringVarP(&flags.backendURL, "backend", "b", "", "backend base URL, overrides config and environment")

	root.AddCommand(
		newDocsCmd(flags),
		newUploadCmd(flags),
		newAskCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	rt, err := flags.setup()
	if err != nil {
		return err
	}
	defer rt.close()

	sender := tui.NewSender()
	app := tui.NewApp(cmd.Context(), tui.Deps{
		Store:      rt.store,
		Upload:     rt.uploads(sender),
		Chat:       rt.session(),
		Selection:  rt.selection,
		Sender:     sender,
		BackendURL: rt.client.BaseURL(),
		Logger:     rt.logger.Named("tui"),
	})
	return app.Run()
}
