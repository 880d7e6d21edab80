// Package cli implements the colmap command line tool. It runs the same
// mapping pipeline as the HTTP server against local files.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/colmap/internal/catalog"
	"github.com/JonMunkholm/colmap/internal/config"
	"github.com/JonMunkholm/colmap/internal/logging"
)

// ErrMappingIncomplete is returned by strict commands when the mapping
// report has errors.
var ErrMappingIncomplete = errors.New("mapping incomplete")

// App holds global flags and the configuration shared by all commands.
type App struct {
	version string
	out     io.Writer
	errOut  io.Writer

	envFile    string
	format     string
	logLevel   string
	catalogDir string

	cfg *config.Config
}

// New creates an App writing results to out and logs to errOut.
func New(version string, out, errOut io.Writer) *App {
	return &App{version: version, out: out, errOut: errOut}
}

// Execute runs the command line given in args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root.ExecuteContext(ctx)
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "colmap",
		Short:   "Map spreadsheet columns onto business field catalogs",
		Version: a.version,
		Long: `colmap reads the header row of a CSV or Excel file and suggests which
column holds each field of a catalog, using exact, cleaned and fuzzy
matching. It reports required fields left unmapped, mappings to columns
that do not exist, and columns used by more than one field.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file read before the environment (skipped if missing)")
	flags.StringVarP(&a.format, "format", "o", "", "output format: table, json, yaml (default table on a terminal, json otherwise)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flags.StringVar(&a.catalogDir, "catalog-dir", "", "directory of extra catalog YAML files (overrides CATALOG_DIR)")

	root.AddCommand(
		a.newMapCommand(),
		a.newValidateCommand(),
		a.newCatalogsCommand(),
		a.newSheetsCommand(),
	)
	return root
}

// setup loads configuration and catalogs before any command runs.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := config.LoadDotenv(a.envFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.catalogDir != "" {
		cfg.Catalog.Dir = a.catalogDir
	}
	logging.SetupWriter(a.errOut, cfg.Logging.Level, cfg.Logging.Format)

	catalog.Clear()
	if err := catalog.Load(cfg.Catalog.Dir); err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}

	a.cfg = cfg
	return nil
}

// lookupCatalog resolves key, falling back to the configured default.
func (a *App) lookupCatalog(key string) (catalog.Catalog, error) {
	if key == "" {
		key = a.cfg.Catalog.Default
	}
	return catalog.Lookup(key)
}
