// Command edindigena loads the basic-education census and IBGE indicator
// tables into MongoDB and runs the indigenous education reports over them.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/aabenjamim/MC536-ed-indigena-mongo/census"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/config"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/indicators"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/reports"
	"github.com/aabenjamim/MC536-ed-indigena-mongo/storage"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	Version = "0.1.0"
	appName = "edindigena"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by the subcommands once flags are resolved.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	rc := &cobra.Command{
		Use:   appName,
		Short: "Indigenous education census loader and reports",
		Long: `edindigena loads the basic-education census microdata and the IBGE
education indicator tables into MongoDB (collections Municipios, Escolas and
TerritoriosIndigenas) and runs five analytical reports over them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	a.cfg.AddFlags(rc.PersistentFlags())

	rc.AddCommand(a.newMigrateCommand())
	rc.AddCommand(a.newQueryCommand())
	rc.AddCommand(a.newServeCommand())
	rc.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		},
	})

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setup loads the dotenv file, resolves flags, environment and config file
// into a.cfg, and installs the run logger.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()

	loaded, err := config.LoadEnvFile(a.cfg.EnvFile)
	if err != nil {
		return err
	}
	if err := config.Load(flags); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger = newLogger(a.stderr, a.cfg.LogLevel).With("run_id", uuid.NewString(), "command", cmd.Name())
	slog.SetDefault(a.logger)
	if loaded {
		a.logger.Debug("Loaded environment file", "path", a.cfg.EnvFile)
	}
	return nil
}

func newLogger(w io.Writer, levelName string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// connect opens the store; the returned close func disconnects it.
func (a *app) connect(ctx context.Context) (*storage.Mongo, *mongo.Client, func(), error) {
	client, err := config.ConnectWithRetry(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	store := storage.NewMongo(client.Database(a.cfg.Database), a.logger)
	return store, client, func() { config.CloseDB(client, a.logger) }, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Drop and repopulate the collections from the input files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			store, _, closeDB, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			m := census.NewMigrator(store, a.migrateOptions(), a.logger)
			sum, err := m.Run(ctx)
			if err != nil {
				return errors.Wrap(err, "migration failed")
			}
			writeSummary(a.stdout, sum)
			return nil
		},
	}
}

func (a *app) migrateOptions() census.Options {
	return census.Options{
		CensusFile: a.cfg.Path(a.cfg.CensusFile),
		Indicators: indicators.Files{
			Attendance:   a.cfg.Path(a.cfg.AttendanceFile),
			YearsOfStudy: a.cfg.Path(a.cfg.YearsOfStudyFile),
			Instruction:  a.cfg.Path(a.cfg.InstructionFile),
		},
		SkipRows: a.cfg.SkipRows,
		Parallel: a.cfg.Parallel,
	}
}

func writeSummary(w io.Writer, sum *census.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Etapa", "Quantidade"})
	t.AppendRow(table.Row{"Linhas do censo", sum.CensusRows})
	t.AppendRow(table.Row{"Linhas ignoradas", sum.SkippedRows})
	t.AppendRow(table.Row{"Registros de indicadores", sum.IndicatorRecords})
	t.AppendRow(table.Row{"Municípios", sum.Municipalities})
	t.AppendRow(table.Row{"Municípios com nível de instrução", fmt.Sprintf("%d (%.1f%%)", sum.WithInstruction, sum.InstructionRate*100)})
	t.AppendRow(table.Row{"Escolas", sum.Schools})
	t.AppendRow(table.Row{"Escolas sem município", sum.UnmappedSchools})
	t.AppendRow(table.Row{"Territórios indígenas", sum.Territories})
	t.Render()
}

func (a *app) newQueryCommand() *cobra.Command {
	var (
		reportID string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run the analytical reports and print their results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != reports.FormatTable && format != reports.FormatJSON {
				return errors.Errorf("unknown output format %q", format)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			store, _, closeDB, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			runner := reports.NewRunner(store, a.cfg.Parallel, a.logger)
			var results []*reports.Result
			if reportID == "" {
				results, err = runner.RunAll(ctx)
			} else {
				var res *reports.Result
				res, err = runner.Run(ctx, reportID)
				results = []*reports.Result{res}
			}
			if err != nil {
				return err
			}
			return reports.Write(a.stdout, results, format)
		},
	}
	cmd.Flags().StringVarP(&reportID, "report", "r", "", "run only this report id (default: all, in order)")
	cmd.Flags().StringVarP(&format, "format", "f", reports.FormatTable, "output format: table or json")
	return cmd
}
