package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/dripvault/internal/common"
	"github.com/dmitrijs2005/dripvault/internal/logging"
	"github.com/dmitrijs2005/dripvault/internal/vault/config"
	"github.com/dmitrijs2005/dripvault/internal/vault/services"
)

// openEngine is a test seam for services.Open.
var openEngine = services.Open

// App is one CLI session bound to an opened vault.
type App struct {
	config *config.Config
	engine *services.Engine
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the vault described by c. Diagnostics go to errOut at the
// configured log level; user-facing output goes to out.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	logger := logging.NewTextLogger(errOut, c.LogLevel)

	engine, err := openEngine(ctx, c, services.WithLogger(logger))
	if err != nil {
		logger.Error(ctx, "error opening vault", "error", err)
		return nil, err
	}

	return &App{
		config: c,
		engine: engine,
		log:    logger,
		reader: bufio.NewReader(in),
		out:    out,
	}, nil
}

// Close locks the vault and releases its store.
func (a *App) Close() error {
	return a.engine.Close()
}

func (a *App) isUnlocked() bool {
	return a.engine.State() == services.StateUnlocked
}

func (a *App) getStatus() string {
	return a.engine.State().String()
}

// Unlock prompts for the password and unlocks the vault.
func (a *App) Unlock(ctx context.Context) error {
	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	return a.engine.Unlock(ctx, pw)
}

// Lock wipes the session keys.
func (a *App) Lock(ctx context.Context) error {
	a.engine.Lock()
	a.log.Debug(ctx, "vault locked")
	return nil
}
