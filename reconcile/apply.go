package reconcile

import (
	"context"
	"fmt"

	"github.com/zeebo/xxh3"
)

// ApplyOperationName tags the aggregate result of ApplyMissing.
const ApplyOperationName = "apply_missing"

// MissingObject names an object reported as missing by an external source.
type MissingObject struct {
	Name string `json:"missing_object"`
}

// Statement is a creation statement selected for a missing object.
type Statement struct {
	Name string
	DDL  string
}

// Fingerprint returns a short stable hash of a DDL statement.
func Fingerprint(ddl string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(ddl))
}

// SelectStatements returns the statements of defs whose key column for kind
// names one of missing, in the order of defs. Missing names without a
// definition are skipped. When several definitions share a name the first
// one wins and the rest are logged and dropped.
func SelectStatements(missing []MissingObject, kind ObjectKind, defs []Definition, opts ...Option) []Statement {
	s := newSettings(opts)

	wanted := make(map[string]struct{}, len(missing))
	for _, m := range missing {
		wanted[m.Name] = struct{}{}
	}

	taken := make(map[string]string, len(missing))
	var stmts []Statement
	for _, d := range defs {
		name, ddl := d.key(kind)
		if name == "" {
			continue
		}
		if _, ok := wanted[name]; !ok {
			continue
		}
		if first, dup := taken[name]; dup {
			s.logger.Warn("duplicate definition ignored",
				"kind", kind.String(),
				"name", name,
				"kept", Fingerprint(first),
				"ignored", Fingerprint(ddl),
			)
			continue
		}
		taken[name] = ddl
		stmts = append(stmts, Statement{Name: name, DDL: ddl})
	}
	return stmts
}

// ApplyMissing runs the creation statements for the missing objects of kind
// as one batch and returns a single aggregate result. Statements are not
// wrapped in a transaction; a failure part way through leaves the earlier
// statements applied. An empty selection still issues an empty batch.
func ApplyMissing(ctx context.Context, conn Conn, missing []MissingObject, kind ObjectKind, defs []Definition, opts ...Option) Result {
	s := newSettings(opts)
	log := s.logger.With("kind", kind.String())

	stmts := SelectStatements(missing, kind, defs, opts...)
	queries := make([]QueryAndParams, 0, len(stmts))
	for _, st := range stmts {
		queries = append(queries, QueryAndParams{Query: st.DDL})
	}

	if isNilConn(conn) {
		return failedResult(ApplyOperationName, failedAt(errNilConn))
	}
	out, err := conn.ExecuteQueries(ctx, queries, false)
	if err != nil {
		log.Warn("ddl batch failed", "statements", len(queries), "err", err)
		return failedResult(ApplyOperationName, failedAt(err))
	}
	r := fromOutcome(ApplyOperationName, out)
	log.Info("ddl batch applied", "statements", len(queries), "state", r.State)
	return r
}

// ApplyEach runs every selected statement on its own and returns one result
// per statement, named after the object it creates. A failing statement
// does not stop the ones after it.
func ApplyEach(ctx context.Context, conn Conn, missing []MissingObject, kind ObjectKind, defs []Definition, opts ...Option) []Result {
	s := newSettings(opts)
	log := s.logger.With("kind", kind.String())

	stmts := SelectStatements(missing, kind, defs, opts...)
	results := make([]Result, 0, len(stmts))
	for _, st := range stmts {
		if isNilConn(conn) {
			results = append(results, failedResult(st.Name, failedAt(errNilConn)))
			continue
		}
		out, err := conn.ExecuteQueries(ctx, []QueryAndParams{{Query: st.DDL}}, false)
		if err != nil {
			log.Warn("ddl failed", "name", st.Name, "err", err)
			results = append(results, failedResult(st.Name, failedAt(err)))
			continue
		}
		r := fromOutcome(st.Name, out)
		if r.State != StateSuccess {
			log.Warn("ddl not applied", "name", st.Name, "state", r.State, "error", r.ErrorMessage)
		}
		results = append(results, r)
	}
	return results
}
