package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgreconcile/reconcile"
)

var sqliteDefs = []reconcile.Definition{
	{TableName: "event", TableDDL: "CREATE TABLE event (event_id INTEGER PRIMARY KEY, name TEXT NOT NULL)"},
	{TableName: "player", TableDDL: "CREATE TABLE player (player_id INTEGER PRIMARY KEY, event_id INTEGER REFERENCES event(event_id))"},
	{TableName: "golf_user", TableDDL: "CREATE TABLE golf_user (user_id INTEGER PRIMARY KEY)"},
}

func openSQLite(t *testing.T) reconcile.Conn {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "golf.db")
	conn, closeFn, err := Open(context.Background(), SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return conn
}

func expectedTables(names ...string) []reconcile.ExpectedObject {
	out := make([]reconcile.ExpectedObject, 0, len(names))
	for _, n := range names {
		out = append(out, reconcile.ExpectedObject{Name: n, Kind: reconcile.KindTable})
	}
	return out
}

func states(results []reconcile.Result) map[string]reconcile.State {
	m := make(map[string]reconcile.State, len(results))
	for _, r := range results {
		m[r.ObjectName] = r.State
	}
	return m
}

func TestSQLite_CheckApplyCheck(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	expected := expectedTables("event", "player", "golf_user")

	query, err := IntrospectionQuery(SQLite, reconcile.KindTable, []string{"event", "player", "golf_user"})
	require.NoError(t, err)

	_, err = conn.ExecuteQueries(ctx, []reconcile.QueryAndParams{{Query: sqliteDefs[2].TableDDL}}, false)
	require.NoError(t, err)

	before := reconcile.CheckExistence(ctx, conn, reconcile.KindTable, query, expected)
	assert.Equal(t, map[string]reconcile.State{
		"event":     reconcile.StateMissingRelations,
		"player":    reconcile.StateMissingRelations,
		"golf_user": reconcile.StateSuccess,
	}, states(before))

	applied := reconcile.ApplyMissing(ctx, conn, reconcile.MissingFromResults(before), reconcile.KindTable, sqliteDefs)
	assert.Equal(t, reconcile.Result{ObjectName: reconcile.ApplyOperationName, State: reconcile.StateSuccess}, applied)

	after := reconcile.CheckExistence(ctx, conn, reconcile.KindTable, query, expected)
	for name, st := range states(after) {
		assert.Equal(t, reconcile.StateSuccess, st, name)
	}

	// Creating again fails because the objects now exist.
	again := reconcile.ApplyMissing(ctx, conn, reconcile.MissingFromResults(before), reconcile.KindTable, sqliteDefs)
	assert.Equal(t, reconcile.StateQueryFailed, again.State)
	assert.Contains(t, again.ErrorMessage, "already exists")
}

func TestSQLite_PartialBatchIsNotRolledBack(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	defs := []reconcile.Definition{
		{TableName: "event", TableDDL: "CREATE TABLE event (event_id INTEGER PRIMARY KEY)"},
		{TableName: "player", TableDDL: "CREATE TABLE player ("},
		{TableName: "golf_user", TableDDL: "CREATE TABLE golf_user (user_id INTEGER PRIMARY KEY)"},
	}
	missing := []reconcile.MissingObject{{Name: "event"}, {Name: "player"}, {Name: "golf_user"}}

	applied := reconcile.ApplyMissing(ctx, conn, missing, reconcile.KindTable, defs)
	assert.Equal(t, reconcile.StateQueryFailed, applied.State)
	assert.Contains(t, applied.ErrorMessage, "statement 2")

	query, err := IntrospectionQuery(SQLite, reconcile.KindTable, []string{"event", "player", "golf_user"})
	require.NoError(t, err)
	got := reconcile.CheckExistence(ctx, conn, reconcile.KindTable, query, expectedTables("event", "player", "golf_user"))
	assert.Equal(t, map[string]reconcile.State{
		"event":     reconcile.StateSuccess,
		"player":    reconcile.StateMissingRelations,
		"golf_user": reconcile.StateMissingRelations,
	}, states(got))
}

func TestSQLite_ApplyEachAttributesFailures(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	defs := []reconcile.Definition{
		{TableName: "event", TableDDL: "CREATE TABLE event (event_id INTEGER PRIMARY KEY)"},
		{TableName: "player", TableDDL: "CREATE TABLE player ("},
		{TableName: "golf_user", TableDDL: "CREATE TABLE golf_user (user_id INTEGER PRIMARY KEY)"},
	}
	missing := []reconcile.MissingObject{{Name: "event"}, {Name: "player"}, {Name: "golf_user"}}

	got := reconcile.ApplyEach(ctx, conn, missing, reconcile.KindTable, defs)
	assert.Equal(t, map[string]reconcile.State{
		"event":     reconcile.StateSuccess,
		"player":    reconcile.StateQueryFailed,
		"golf_user": reconcile.StateSuccess,
	}, states(got))
}

func TestSQLite_PassCreatesTables(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)

	query, err := IntrospectionQuery(SQLite, reconcile.KindTable, []string{"event", "player", "golf_user"})
	require.NoError(t, err)

	reports := reconcile.Pass(ctx, conn, reconcile.PassConfig{
		Expected:    expectedTables("event", "player", "golf_user"),
		Definitions: sqliteDefs,
		Queries:     map[reconcile.ObjectKind]string{reconcile.KindTable: query},
		Apply:       true,
	})
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Failed())
	assert.Empty(t, reports[0].Missing())
}
