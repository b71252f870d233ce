package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/manholepro/internal/client/config"
	"github.com/dmitrijs2005/manholepro/internal/client/services"
	"github.com/dmitrijs2005/manholepro/internal/client/store"
	"github.com/dmitrijs2005/manholepro/internal/logging"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       *store.Store
	service     services.InspectionService
	reader      *bufio.Reader
	out         io.Writer
	interactive bool
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	st := store.New(store.FileDSN(c.DatabasePath), store.WithLogger(logger))

	return &App{
		config:      c,
		logger:      logger,
		store:       st,
		service:     services.NewInspectionService(st),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: isTerminal(int(os.Stdin.Fd())),
	}, nil
}

// Run opens the store and blocks in the REPL until the user exits, input
// ends or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.store.Close(); err != nil {
			a.logger.Warn(ctx, "closing store", "error", err)
		}
	}()

	if err := a.store.Open(ctx); err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	a.logger.Info(ctx, "inspection store opened", "path", a.config.DatabasePath)

	prompt := ""
	if a.interactive {
		printlnFn("Manhole inspections (type 'help' for commands)")
		prompt = "mh> "
	}
	runREPL(ctx, a, prompt, a.reader)
	return nil
}
