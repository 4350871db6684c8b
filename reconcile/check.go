package reconcile

import "context"

// Result column names expected from an introspection query.
const (
	ColumnName   = "tbl"
	ColumnExists = "exists"
)

// CheckOperationName tags results that describe the introspection query
// itself rather than an object.
const CheckOperationName = "check_existence"

// CheckExistence runs query and reports, for every expected object of kind,
// whether the query marked it as present. Results follow the order of
// expected. When the query cannot be run, a single QueryFailed (or the
// state reported by conn) result is returned instead.
//
// The query must return rows with a text column "tbl" and a column "exists"
// holding a boolean or the text "t"/"f". Rows lacking either column are
// ignored.
func CheckExistence(ctx context.Context, conn Conn, kind ObjectKind, query string, expected []ExpectedObject, opts ...Option) []Result {
	s := newSettings(opts)
	log := s.logger.With("kind", kind.String())

	if isNilConn(conn) {
		return []Result{failedResult(CheckOperationName, failedAt(errNilConn))}
	}
	out, err := conn.ExecuteQueries(ctx, []QueryAndParams{{Query: query}}, true)
	if err != nil {
		log.Warn("introspection query failed", "err", err)
		return []Result{failedResult(CheckOperationName, failedAt(err))}
	}
	if out == nil || out.State != StateSuccess {
		r := fromOutcome(CheckOperationName, out)
		log.Warn("introspection query not successful", "state", r.State, "error", r.ErrorMessage)
		return []Result{r}
	}

	var rows []Row
	if len(out.RowSets) > 0 {
		rows = out.RowSets[0].Rows
	}
	present := observed(rows)

	results := make([]Result, 0, len(expected))
	for _, obj := range expected {
		if obj.Kind != kind {
			continue
		}
		r := Result{ObjectName: obj.Name, State: StateMissingRelations}
		if _, ok := present[obj.Name]; ok {
			r.State = StateSuccess
		} else {
			log.Debug("object missing", "name", obj.Name)
		}
		results = append(results, r)
	}
	return results
}

// observed collects the names of rows whose exists column is truthy.
func observed(rows []Row) map[string]struct{} {
	set := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		exists, ok := row.Get(ColumnExists)
		if !ok {
			continue
		}
		tbl, ok := row.Get(ColumnName)
		if !ok {
			continue
		}
		name, ok := tbl.AsText()
		if !ok || !IsTruthy(exists) {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}
