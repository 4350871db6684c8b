package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pgreconcile/database"
	"pgreconcile/payload"
	"pgreconcile/reconcile"
)

// Exit statuses besides 0 (all present) and 1 (error).
const (
	exitMissing = 2
	exitFailed  = 3
)

func kindFlag(cmd *cobra.Command, kind *string) {
	cmd.Flags().StringVarP(kind, "kind", "k", "table", "object kind (table, constraint)")
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		kind        string
		emitMissing string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which objects of a kind are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := reconcile.ParseKind(kind)
			if err != nil {
				return err
			}
			query, err := a.query(k)
			if err != nil {
				return err
			}
			if query == "" {
				a.logger.Info("nothing to check", "kind", k.String())
				return printResults(a, nil)
			}

			conn, closeFn, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			results := reconcile.CheckExistence(cmd.Context(), conn, k, query, a.expected, a.opts()...)
			if emitMissing != "" {
				if err := writePayload(a, emitMissing, payload.FromResults(results)); err != nil {
					return err
				}
			}
			if err := printResults(a, results); err != nil {
				return err
			}
			return statusOf(results)
		},
	}
	kindFlag(cmd, &kind)
	cmd.Flags().StringVar(&emitMissing, "emit-missing", "", "write the missing objects as a JSON payload to this file")
	return cmd
}

func newApplyCmd(a *app) *cobra.Command {
	var (
		kind        string
		missingFile string
		each        bool
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the objects listed in a missing-object payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := reconcile.ParseKind(kind)
			if err != nil {
				return err
			}
			missing, err := readPayload(a, missingFile)
			if err != nil {
				return err
			}

			conn, closeFn, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var results []reconcile.Result
			if each {
				results = reconcile.ApplyEach(cmd.Context(), conn, missing, k, a.defs, a.opts()...)
			} else {
				results = []reconcile.Result{reconcile.ApplyMissing(cmd.Context(), conn, missing, k, a.defs, a.opts()...)}
			}
			if err := printResults(a, results); err != nil {
				return err
			}
			return statusOf(results)
		},
	}
	kindFlag(cmd, &kind)
	cmd.Flags().StringVarP(&missingFile, "missing-file", "f", "", "JSON payload of missing objects, - for stdin (default paths.missing_objects_file)")
	cmd.Flags().BoolVar(&each, "each", false, "run every statement on its own and report per object")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Check tables then constraints, optionally creating what is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			queries := map[reconcile.ObjectKind]string{}
			for _, k := range []reconcile.ObjectKind{reconcile.KindTable, reconcile.KindConstraint} {
				q, err := a.query(k)
				if errors.Is(err, database.ErrUnsupported) {
					a.logger.Warn("skipping kind", "kind", k.String(), "err", err)
					continue
				}
				if err != nil {
					return fmt.Errorf("%s query: %w", k, err)
				}
				queries[k] = q
			}

			conn, closeFn, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			reports := reconcile.Pass(cmd.Context(), conn, reconcile.PassConfig{
				Expected:    a.expected,
				Definitions: a.defs,
				Queries:     queries,
				Apply:       apply,
			}, a.opts()...)
			if err := printReports(a, reports); err != nil {
				return err
			}

			code := 0
			for _, rep := range reports {
				switch {
				case rep.Failed():
					code = exitFailed
				case len(rep.Missing()) > 0 && code == 0:
					code = exitMissing
				}
			}
			if code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "create missing objects and check again")
	return cmd
}

func newPlanCmd(a *app) *cobra.Command {
	var (
		kind        string
		missingFile string
		out         string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Write the statements apply would run, without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := reconcile.ParseKind(kind)
			if err != nil {
				return err
			}
			missing, err := readPayload(a, missingFile)
			if err != nil {
				return err
			}
			stmts := reconcile.SelectStatements(missing, k, a.defs, a.opts()...)

			if out == "" {
				out = a.cfg.Paths.PlanFile
			}
			if out == "" || out == "-" {
				return database.RenderPlan(a.stdout, k, stmts)
			}
			if err := database.WritePlan(out, k, stmts); err != nil {
				return err
			}
			a.logger.Info("plan written", "file", out, "statements", len(stmts))
			return nil
		},
	}
	kindFlag(cmd, &kind)
	cmd.Flags().StringVarP(&missingFile, "missing-file", "f", "", "JSON payload of missing objects, - for stdin (default paths.missing_objects_file)")
	cmd.Flags().StringVar(&out, "out", "", "plan file, - for stdout (default paths.plan_file)")
	return cmd
}

func readPayload(a *app, path string) ([]reconcile.MissingObject, error) {
	if path == "" {
		path = a.cfg.Paths.MissingObjectsFile
	}
	switch path {
	case "":
		return nil, fmt.Errorf("no missing-object payload: set --missing-file or paths.missing_objects_file")
	case "-":
		return payload.DecodeMissing(a.stdin)
	default:
		return payload.LoadMissing(path)
	}
}

func writePayload(a *app, path string, objs []reconcile.MissingObject) error {
	if path == "-" {
		return payload.EncodeMissing(a.stdout, objs)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := payload.EncodeMissing(f, objs); err != nil {
		f.Close()
		return fmt.Errorf("write payload %s: %w", path, err)
	}
	return f.Close()
}

// statusOf maps results to the command's exit status.
func statusOf(results []reconcile.Result) error {
	code := 0
	for _, r := range results {
		switch r.State {
		case reconcile.StateSuccess:
		case reconcile.StateMissingRelations:
			if code == 0 {
				code = exitMissing
			}
		default:
			code = exitFailed
		}
	}
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}
