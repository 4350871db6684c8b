package database

import (
	"fmt"
	"io"
	"os"
	"strings"

	"pgreconcile/reconcile"
)

// RenderPlan writes the statements that would create the missing objects,
// in execution order, each preceded by its object name and fingerprint.
func RenderPlan(w io.Writer, kind reconcile.ObjectKind, stmts []reconcile.Statement) error {
	if _, err := fmt.Fprintf(w, "-- reconcile plan: %d %s statement(s)\n", len(stmts), kind); err != nil {
		return err
	}
	for _, st := range stmts {
		ddl := strings.TrimSpace(st.DDL)
		if !strings.HasSuffix(ddl, ";") {
			ddl += ";"
		}
		if _, err := fmt.Fprintf(w, "\n-- %s (xxh3 %s)\n%s\n", st.Name, reconcile.Fingerprint(st.DDL), ddl); err != nil {
			return err
		}
	}
	return nil
}

// WritePlan renders the plan to outFile.
func WritePlan(outFile string, kind reconcile.ObjectKind, stmts []reconcile.Statement) error {
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := RenderPlan(f, kind, stmts); err != nil {
		f.Close()
		return fmt.Errorf("write plan %s: %w", outFile, err)
	}
	return f.Close()
}
