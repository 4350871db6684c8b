package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaSQL = `
CREATE TABLE event (event_id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE player (player_id INTEGER PRIMARY KEY, event_id INTEGER REFERENCES event (event_id));
ALTER TABLE player ADD CONSTRAINT player_event_fk FOREIGN KEY (event_id) REFERENCES event (event_id);
`

// newWorkspace writes a sqlite config and schema into a temp dir and
// returns the config path.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.sql"), []byte(schemaSQL), 0o644))
	cfg := `
database:
  driver: sqlite
  path: golf.db
paths:
  schema_file: schema.sql
log:
  level: error
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

type run struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) run {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(context.Background(), append([]string{"--env-file", ""}, args...), strings.NewReader(stdin), &out, &errOut)
	return run{code: code, stdout: out.String(), stderr: errOut.String()}
}

func TestCheckApplyCheck(t *testing.T) {
	cfg := newWorkspace(t)
	payloadPath := filepath.Join(filepath.Dir(cfg), "missing.json")

	r := runCLI(t, "", "-c", cfg, "check", "--emit-missing", payloadPath)
	assert.Equal(t, exitMissing, r.code, r.stderr)
	assert.Contains(t, r.stdout, "event")
	assert.Contains(t, r.stdout, "missing")

	b, err := os.ReadFile(payloadPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"missing_object":"event"},{"missing_object":"player"}]`, string(b))

	r = runCLI(t, "", "-c", cfg, "-o", "json", "apply", "-f", payloadPath)
	require.Equal(t, 0, r.code, r.stderr)
	var applied []map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &applied))
	assert.Equal(t, []map[string]string{{"object_name": "apply_missing", "state": "success"}}, applied)

	r = runCLI(t, "", "-c", cfg, "-o", "json", "check")
	require.Equal(t, 0, r.code, r.stderr)
	var checked []map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &checked))
	assert.Equal(t, []map[string]string{
		{"object_name": "event", "state": "success"},
		{"object_name": "player", "state": "success"},
	}, checked)
}

func TestCheckEmitMissingWriteFails(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	cfg := newWorkspace(t)

	r := runCLI(t, "", "-c", cfg, "check", "--emit-missing", "/dev/full")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "/dev/full")

	r = runCLI(t, "", "-c", cfg, "check", "--emit-missing", filepath.Join(t.TempDir(), "no", "such", "dir.json"))
	assert.Equal(t, 1, r.code)
}

func TestApplyFromStdinEach(t *testing.T) {
	cfg := newWorkspace(t)

	r := runCLI(t, `[{"missing_object":"player"},{"missing_object":"unknown"}]`,
		"-c", cfg, "-o", "json", "apply", "-f", "-", "--each")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, `"object_name": "player"`)
	assert.NotContains(t, r.stdout, "unknown")
}

func TestApplyRejectsInvalidPayload(t *testing.T) {
	cfg := newWorkspace(t)

	r := runCLI(t, `[{"missing_object":""}]`, "-c", cfg, "apply", "-f", "-")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "missing object 0")
}

func TestSyncApply(t *testing.T) {
	cfg := newWorkspace(t)

	r := runCLI(t, "", "-c", cfg, "sync")
	assert.Equal(t, exitMissing, r.code, r.stderr)

	r = runCLI(t, "", "-c", cfg, "sync", "--apply")
	assert.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "KIND")

	r = runCLI(t, "", "-c", cfg, "sync")
	assert.Equal(t, 0, r.code, r.stderr)
}

func TestPlan(t *testing.T) {
	cfg := newWorkspace(t)

	r := runCLI(t, `[{"missing_object":"player_event_fk"}]`, "-c", cfg, "plan", "-k", "constraint", "-f", "-", "--out", "-")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "-- reconcile plan: 1 constraint statement(s)")
	assert.Contains(t, r.stdout, "ALTER TABLE player ADD CONSTRAINT player_event_fk")
}

func TestBadFlagsAndConfig(t *testing.T) {
	cfg := newWorkspace(t)

	r := runCLI(t, "", "-c", cfg, "-o", "xml", "check")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "unsupported output format")

	r = runCLI(t, "", "-c", cfg, "check", "--kind", "index")
	assert.Equal(t, 1, r.code)

	r = runCLI(t, "", "-c", filepath.Join(t.TempDir(), "nope.yaml"), "check")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "failed to load config")
}
