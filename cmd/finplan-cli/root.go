package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"finplan/internal/cli"
	"finplan/internal/config"
	"finplan/internal/core"
	"finplan/internal/log"
	"finplan/internal/report"
	"finplan/internal/storage"
)

type options struct {
	dbPath   string
	logLevel string
	asJSON   bool
	monthly  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "finplan-cli",
		Short:         "Ten-year household financial projections",
		Long:          "Project a household's net worth month by month for ten years, from a TOML scenario or a stored household.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print the projection as JSON")
	root.PersistentFlags().BoolVar(&opts.monthly, "monthly", false, "List every month instead of one row per year")

	root.AddCommand(newProjectCmd(opts), newImportCmd(opts), newShowCmd(opts))
	return root
}

func (o *options) logger(w io.Writer) *log.Logger {
	return log.New(log.Config{
		Level:     log.ParseLevel(o.logLevel),
		Component: "cli",
		Output:    w,
	})
}

// openRepo opens the database and returns a context carrying the CLI logger.
func (o *options) openRepo(cmd *cobra.Command) (*storage.SQLiteRepository, context.Context, error) {
	logger := o.logger(cmd.ErrOrStderr())
	ctx := log.WithContext(cmd.Context(), logger)
	repo, err := storage.NewSQLiteRepository(o.dbPath)
	if err != nil {
		return nil, nil, err
	}
	return repo, ctx, nil
}

func (o *options) printProjection(w io.Writer, title string, p core.FinancialProjection) error {
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	_, err := io.WriteString(w, report.Render(p, report.Options{Title: title, Monthly: o.monthly}))
	return err
}

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
