// Package authctl is the operator command line for the account directory:
// it registers accounts, issues tokens and applies migrations without going
// through the HTTP or gRPC servers.
package authctl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/spf13/cobra"
)

// BackendOpener builds the account backend for one command invocation.
type BackendOpener func(ctx context.Context, cfg *config.Config, logger logging.Logger, migrate bool) (*server.Backend, error)

type App struct {
	in   *bufio.Reader
	out  io.Writer
	open BackendOpener

	configFile string
	dsn        string
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{
		in:   bufio.NewReader(in),
		out:  out,
		open: server.OpenBackend,
	}
}

func (a *App) loadConfig() (*config.Config, error) {
	var args []string
	if a.configFile != "" {
		args = append(args, "-c", a.configFile)
	}
	cfg, err := config.Load(args, false)
	if err != nil {
		return nil, err
	}
	if a.dsn != "" {
		cfg.DatabaseDSN = a.dsn
	}
	return cfg, nil
}

// withBackend opens the configured backend, runs fn and closes it again.
func (a *App) withBackend(cmd *cobra.Command, migrate bool, fn func(ctx context.Context, b *server.Backend) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.NewJSONLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	b, err := a.open(ctx, cfg, logger, migrate)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	return fn(ctx, b)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
