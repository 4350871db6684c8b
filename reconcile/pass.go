package reconcile

import "context"

// MissingFromResults returns the objects that a check reported as missing.
func MissingFromResults(results []Result) []MissingObject {
	var missing []MissingObject
	for _, r := range results {
		if r.State == StateMissingRelations {
			missing = append(missing, MissingObject{Name: r.ObjectName})
		}
	}
	return missing
}

// PassConfig describes one reconciliation pass.
type PassConfig struct {
	Expected    []ExpectedObject
	Definitions []Definition
	// Queries holds the introspection query per kind. Kinds without a query
	// are skipped.
	Queries map[ObjectKind]string
	// Apply creates missing objects and checks again. Without it the pass
	// only reports.
	Apply bool
}

// KindReport is the outcome of a pass for one kind.
type KindReport struct {
	Kind    ObjectKind `json:"kind"`
	Before  []Result   `json:"before"`
	Applied *Result    `json:"applied,omitempty"`
	After   []Result   `json:"after,omitempty"`
}

// Missing returns the objects still missing at the end of the pass.
func (k KindReport) Missing() []MissingObject {
	if k.After != nil {
		return MissingFromResults(k.After)
	}
	return MissingFromResults(k.Before)
}

// Failed reports whether any check or apply in the report failed.
func (k KindReport) Failed() bool {
	for _, set := range [][]Result{k.Before, k.After} {
		for _, r := range set {
			if r.State == StateQueryFailed {
				return true
			}
		}
	}
	return k.Applied != nil && k.Applied.State != StateSuccess
}

// Pass checks tables, then constraints, so that constraints are created
// after the tables they reference.
func Pass(ctx context.Context, conn Conn, cfg PassConfig, opts ...Option) []KindReport {
	var reports []KindReport
	for _, kind := range []ObjectKind{KindTable, KindConstraint} {
		query, ok := cfg.Queries[kind]
		if !ok || query == "" {
			continue
		}
		rep := KindReport{Kind: kind}
		rep.Before = CheckExistence(ctx, conn, kind, query, cfg.Expected, opts...)

		missing := MissingFromResults(rep.Before)
		if cfg.Apply && len(missing) > 0 && !rep.Failed() {
			applied := ApplyMissing(ctx, conn, missing, kind, cfg.Definitions, opts...)
			rep.Applied = &applied
			rep.After = CheckExistence(ctx, conn, kind, query, cfg.Expected, opts...)
		}
		reports = append(reports, rep)
	}
	return reports
}
