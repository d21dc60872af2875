package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recdiff/internal/cad"
	"recdiff/internal/diffconfig"
	"recdiff/internal/testutil"
)

func TestCompare_Text(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)

	out, _, code := execute(t, "compare", a, b, "--ignore", "updated")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Comparison old -> new")
	assert.Contains(t, out, "== users")
	assert.Contains(t, out, "~ id=2")
	assert.Contains(t, out, `    name: "bob" -> "bobby"`)
	assert.Contains(t, out, "+ {id: 4, name: dan, updated: tue}")
	assert.Contains(t, out, "- {id: 3, name: cid, updated: mon}")
	assert.Contains(t, out, "no differences (2 identical)")
	assert.NotContains(t, out, "\x1b[", "no colors when not writing to a terminal")
}

func TestCompare_JSON(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)

	out, _, code := execute(t, "compare", a, b, "-o", "json", "--table", "users")
	require.Equal(t, 0, code)

	var got struct {
		ID     string `json:"id"`
		Tables []struct {
			Name   string `json:"name"`
			Result struct {
				Added   []map[string]any `json:"added"`
				Removed []map[string]any `json:"removed"`
				Changed []map[string]any `json:"changed"`
			} `json:"result"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.ID)
	require.Len(t, got.Tables, 1)
	assert.Equal(t, "users", got.Tables[0].Name)
	assert.Len(t, got.Tables[0].Result.Added, 1)
	assert.Len(t, got.Tables[0].Result.Removed, 1)
	assert.Len(t, got.Tables[0].Result.Changed, 2)
}

func TestCompare_HTML(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)

	out, _, code := execute(t, "compare", a, b, "-o", "html")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(strings.ToLower(out), "<!doctype html>"), out[:min(len(out), 40)])
	assert.Contains(t, out, "users")
}

func TestCompare_ExitCode(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)

	_, _, code := execute(t, "compare", a, b, "--exit-code", "--summary")
	assert.Equal(t, exitDifferences, code)

	_, _, code = execute(t, "compare", a, a, "--exit-code", "--summary")
	assert.Equal(t, 0, code)

	_, _, code = execute(t, "compare", a, b, "--summary")
	assert.Equal(t, 0, code, "differences alone are not an error")
}

func TestCompare_SummaryAndLimit(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)

	out, _, code := execute(t, "compare", a, b, "--summary")
	require.Equal(t, 0, code)
	assert.NotContains(t, out, "== users")
	assert.Contains(t, out, "IDENTICAL")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "users")

	out, _, code = execute(t, "compare", a, b, "--limit", "1")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "... 1 more changed")
}

func TestCompare_ConfigFileAndSave(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)
	dir := t.TempDir()
	cfgFile := testutil.WriteFile(t, dir, "diff.yaml", "tableConfigs:\n  users:\n    pks: [id]\n    ignore: [updated]\n")
	saved := filepath.Join(dir, "effective.json")

	out, _, code := execute(t, "compare", a, b, "--config", cfgFile, "--save-config", saved, "--summary")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "users")

	cs, err := diffconfig.Load(saved)
	require.NoError(t, err)
	assert.Equal(t, []string{"updated"}, cs.Table("users").Ignored)
	assert.Equal(t, []string{"users", "items"}, cs.Selected)
}

func TestCompare_Errors(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)
	dir := t.TempDir()
	lonely := testutil.WriteSQLite(t, dir, "lonely.db", `CREATE TABLE other (id INTEGER)`)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing argument", []string{"compare", a}, "accepts 2 arg(s), received 1"},
		{"no common tables", []string{"compare", a, lonely}, "nothing to compare"},
		{"unknown table", []string{"compare", a, b, "--table", "nope"}, "nope"},
		{"bad output", []string{"compare", a, b, "-o", "yaml"}, `unsupported output format "yaml"`},
		{"missing config file", []string{"compare", a, b, "--config", filepath.Join(dir, "none.json")}, "open config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := execute(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.wantErr)
		})
	}
}

func TestCompare_JSONErrors(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)

	out, _, code := execute(t, "compare", a, b, "-o", "json", "--table", "nope")
	assert.Equal(t, 1, code)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "validation", got["kind"])
	assert.Contains(t, got["error"], "nope")
}

func TestCompare_StrictKeys(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := testutil.WriteSQLite(t, dir, "a.db", `CREATE TABLE t (code TEXT)`, `INSERT INTO t VALUES ('x'), ('x')`)
	b := testutil.WriteSQLite(t, dir, "b.db", `CREATE TABLE t (code TEXT)`, `INSERT INTO t VALUES ('x')`)
	cfgFile := testutil.WriteFile(t, dir, "diff.json", `{"tableConfigs":{"t":{"pks":["code"]}}}`)

	_, _, code := execute(t, "compare", a, b, "--config", cfgFile, "--summary")
	assert.Equal(t, 0, code)

	out, _, code := execute(t, "compare", a, b, "--config", cfgFile, "--strict-keys", "-o", "json")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, `"kind": "duplicate_key"`)
}

func TestCompare_ProfileDefaults(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)
	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{"default": {Output: "json", Ignore: "updated"}},
	}))

	out, _, code := execute(t, "compare", a, b)
	require.Equal(t, 0, code)
	assert.True(t, json.Valid([]byte(out)), "profile output format applies")
	assert.Contains(t, out, `"ignore": [`)

	t.Setenv("RECDIFF_OUTPUT", "text")
	out, _, code = execute(t, "compare", a, b, "--summary")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Comparison", "environment beats profile")

	out, _, code = execute(t, "compare", a, b, "-o", "json")
	require.Equal(t, 0, code)
	assert.True(t, json.Valid([]byte(out)), "flag beats environment")

	_, errOut, code := execute(t, "compare", a, b, "-p", "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `profile "missing" not found`)
}

func TestCompare_ColorAlways(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)
	t.Setenv("RECDIFF_COLOR", "always")

	out, _, code := execute(t, "compare", a, b)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "\x1b[")

	out, _, code = execute(t, "compare", a, b, "--no-color")
	require.Equal(t, 0, code)
	assert.NotContains(t, out, "\x1b[")
}

func TestSheets(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := testutil.WriteCSV(t, dir, "parts.csv",
		[]string{"part_no", "qty"}, []string{"P1", "1"}, []string{"P2", "2"})
	b := testutil.WriteCSV(t, dir, "parts_new.csv",
		[]string{"part_no", "qty"}, []string{"P1", "1"}, []string{"P2", "3"}, []string{"P3", "1"})

	out, _, code := execute(t, "sheets", a, b)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "== parts")
	assert.Contains(t, out, "(rows matched by part_no)")
	assert.Contains(t, out, "+ row 3: P3 | 1")
	assert.Contains(t, out, `    qty: "2" -> "3"`)
	assert.Contains(t, out, "row 1: P1 | 1")

	out, _, code = execute(t, "sheets", a, b, "--diff-only", "--exit-code")
	assert.Equal(t, exitDifferences, code)
	assert.NotContains(t, out, "row 1: P1 | 1")

	out, _, code = execute(t, "sheets", a, b, "-o", "json")
	require.Equal(t, 0, code)
	assert.True(t, json.Valid([]byte(out)))

	out, _, code = execute(t, "sheets", a, b, "-o", "html")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "parts")
}

func TestInfer(t *testing.T) {
	isolate(t)
	a, b := testutil.Snapshots(t)
	written := filepath.Join(t.TempDir(), "diff.yaml")

	out, _, code := execute(t, "infer", a, b, "--keyword", "nam", "--write", written)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "KEYS")
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "name")

	cs, err := diffconfig.Load(written)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, cs.Table("users").PrimaryKeys)

	out, _, code = execute(t, "infer", a, b, "-o", "json")
	require.Equal(t, 0, code)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "tableConfigs")

	_, errOut, code := execute(t, "infer", a, b, "-o", "html")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not supported by this command")
}

func TestCad(t *testing.T) {
	isolate(t)
	drawing := testutil.WriteFile(t, t.TempDir(), "plan.dxf", strings.Join([]string{
		"0", "SECTION", "2", "ENTITIES",
		"0", "TEXT", "5", "1A", "8", "NOTES", "1", "hello", "7", "Standard",
		"0", "TEXT", "5", "1B", "8", "NOTES @ 1", "1", "world", "7", "Standard",
		"0", "LINE", "5", "1C", "8", "NOTES",
		"0", "TEXT", "5", "1D", "8", "OTHER", "1", "skip",
		"0", "ENDSEC", "0", "EOF",
	}, "\n")+"\n")

	out, _, code := execute(t, "cad", drawing, "--layer", "NOTES")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Layer NOTES: 3 entities")

	out, _, code = execute(t, "cad", drawing, "--layer", "NOTES", "-o", "json")
	require.Equal(t, 0, code)
	var st cad.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 3, st.Entities)
	text := st.Group(cad.TypeText)
	require.NotNil(t, text)
	assert.Equal(t, 2, text.Total)

	_, _, code = execute(t, "cad", filepath.Join(t.TempDir(), "missing.dxf"))
	assert.Equal(t, 1, code)
}

func TestVersion(t *testing.T) {
	isolate(t)

	out, _, code := execute(t, "version")
	require.Equal(t, 0, code)
	assert.Equal(t, "recdiff version dev (commit: none)\n", out)

	out, _, code = execute(t, "version", "-o", "json")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"version":"dev","commit":"none"}`, out)
}

func TestZeroArgCommandsRejectUnexpectedPositionalArgs(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{
		{"version", "extra"},
		{"config", "show", "extra"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, errOut, code := execute(t, args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, `unknown command "extra"`)
		})
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)

	out, _, code := execute(t, "completion", "bash")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "recdiff")

	_, errOut, code := execute(t, "completion", "tcsh")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported shell: tcsh")
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "internal", errorKind(assert.AnError))
}
