package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pgreconcile/config"
	"pgreconcile/database"
	"pgreconcile/parser"
	"pgreconcile/reconcile"
)

// exitError carries a process exit status through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(stderr, ee.msg)
			}
			return ee.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app is the state shared by all commands once the config is loaded.
type app struct {
	cfg      *config.Config
	dialect  database.Dialect
	logger   *slog.Logger
	defs     []reconcile.Definition
	expected []reconcile.ExpectedObject
	output   string

	stdin          io.Reader
	stdout, stderr io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var (
		cfgPath string
		output  string
		envFile string
	)
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "pgreconcile",
		Short:         "Create the tables and constraints missing from a database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
			}
			a.output = output
			return a.load(cfgPath, envFile)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.GetDefaultConfigPath(), "path to config.yaml")
	root.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the config")

	root.AddCommand(
		newCheckCmd(a),
		newApplyCmd(a),
		newSyncCmd(a),
		newPlanCmd(a),
	)
	return root
}

func (a *app) load(cfgPath, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}
	a.cfg = cfg

	if a.dialect, err = database.ParseDialect(cfg.Database.Driver); err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(a.stderr, opts)
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(a.stderr, opts)
	}
	a.logger = slog.New(h).With("run_id", uuid.NewString(), "driver", cfg.Database.Driver)

	a.defs, err = parser.ParseDefinitions(cfg.Paths.SchemaFile)
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	a.expected = parser.ExpectedObjects(a.defs)
	a.logger.Debug("schema loaded",
		"file", cfg.Paths.SchemaFile,
		"tables", len(parser.Names(a.expected, reconcile.KindTable)),
		"constraints", len(parser.Names(a.expected, reconcile.KindConstraint)),
	)
	return nil
}

// connect opens the configured database. The returned function closes it.
func (a *app) connect(ctx context.Context) (reconcile.Conn, func(), error) {
	conn, closeFn, err := database.Open(ctx, a.dialect, a.cfg.Database.GetConnectionString())
	if err != nil {
		return nil, nil, err
	}
	return conn, closeFn, nil
}

// query returns the introspection query for kind: the configured query
// file when set, otherwise one generated for the schema's object names.
// An empty query means there is nothing of that kind to check.
func (a *app) query(kind reconcile.ObjectKind) (string, error) {
	file := a.cfg.Paths.TablesQueryFile
	if kind == reconcile.KindConstraint {
		file = a.cfg.Paths.ConstraintsQueryFile
	}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	names := parser.Names(a.expected, kind)
	if len(names) == 0 {
		return "", nil
	}
	return database.IntrospectionQuery(a.dialect, kind, names)
}

func (a *app) opts() []reconcile.Option {
	return []reconcile.Option{reconcile.WithLogger(a.logger)}
}
