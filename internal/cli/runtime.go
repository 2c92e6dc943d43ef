package cli

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/docchat/cli/config"
	"github.com/docchat/cli/internal/chat"
	"github.com/docchat/cli/internal/documents"
	"github.com/docchat/cli/internal/gateway"
	"github.com/docchat/cli/internal/logging"
	"github.com/docchat/cli/internal/selection"
	"github.com/docchat/cli/internal/upload"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	backendURL string
}

// runtime is the set of wired components a command runs against.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	client    *gateway.Client
	selection *selection.Coordinator
	store     *documents.Store
}

func (g *globalFlags) load() (*config.Config, error) {
	path := g.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path, ".env")
	if err != nil {
		return nil, err
	}
	if g.backendURL != "" {
		cfg.Backend.BaseURL = g.backendURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (g *globalFlags) setup() (*runtime, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	sel := selection.New()
	client := gateway.NewClient(cfg.Backend.BaseURL, logger.Named("gateway"))
	return &runtime{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		selection: sel,
		store:     documents.NewStore(client, sel, logger.Named("documents")),
	}, nil
}

func (rt *runtime) close() {
	_ = rt.logger.Sync()
}

func (rt *runtime) uploads(dispatcher upload.Dispatcher) *upload.Manager {
	return upload.NewManager(rt.client, rt.store, dispatcher, upload.Config{
		AllowedExtensions: rt.cfg.Upload.AllowedExtensions,
		Logger:            rt.logger.Named("upload"),
	})
}

func (rt *runtime) session() *chat.Session {
	return chat.NewSession(rt.client, rt.selection, chat.Config{
		Logger: rt.logger.Named("chat"),
	})
}

type updater interface {
	Update(msg tea.Msg) tea.Cmd
}

// fanOut delivers every message to each component, like the TUI does.
func fanOut(components ...updater) func(tea.Msg) tea.Cmd {
	return func(msg tea.Msg) tea.Cmd {
		cmds := make([]tea.Cmd, 0, len(components))
		for _, c := range components {
			cmds = append(cmds, c.Update(msg))
		}
		return tea.Batch(cmds...)
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
