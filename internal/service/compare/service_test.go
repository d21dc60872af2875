package compare

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"recdiff/internal/diff"
	"recdiff/internal/domain"
	"recdiff/internal/storage"
	"recdiff/internal/testutil"
)

func TestLoadDatabases(t *testing.T) {
	a, b := testutil.Snapshots(t)
	svc := NewService(ServiceDeps{})

	session, err := svc.LoadDatabases(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "old", session.Source.Name)
	assert.Equal(t, []string{"users", "items"}, session.Common)

	cs := session.Config
	assert.Equal(t, []string{"users", "items"}, cs.Selected)
	assert.Equal(t, []string{"id"}, cs.Table("users").PrimaryKeys)
	assert.Equal(t, []string{"sku"}, cs.Table("items").PrimaryKeys, "unique sample values")
	assert.Equal(t, []string{"id", "name", "updated"}, session.Columns("users"))
}

func TestLoadDatabases_NoCommonTables(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteSQLite(t, dir, "a.db", `CREATE TABLE one (id INTEGER)`)
	b := testutil.WriteSQLite(t, dir, "b.db", `CREATE TABLE two (id INTEGER)`)

	_, err := NewService(ServiceDeps{}).LoadDatabases(context.Background(), a, b)
	var nct *domain.NoComparableTablesError
	require.ErrorAs(t, err, &nct)
	assert.Equal(t, "table", nct.Kind)
	assert.Equal(t, "a", nct.Source)
}

func TestLoadDatabases_UnsupportedFormat(t *testing.T) {
	a, _ := testutil.Snapshots(t)
	_, err := NewService(ServiceDeps{}).LoadDatabases(context.Background(), a, "snap.parquet")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestRun(t *testing.T) {
	a, b := testutil.Snapshots(t)
	svc := NewService(ServiceDeps{MaxParallel: 1})
	session, err := svc.LoadDatabases(context.Background(), a, b)
	require.NoError(t, err)

	cs := session.Config
	cs.ToggleIgnored("users", "updated")

	report, err := svc.Run(context.Background(), session, cs)
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, cs.Version, report.ConfigVersion)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	require.Len(t, report.Tables, 2)

	users := report.Tables[0]
	assert.Equal(t, "users", users.Name)
	assert.Equal(t, 3, users.SourceRows)
	assert.Equal(t, 3, users.TargetRows)
	assert.Equal(t, domain.DiffSummary{Added: 1, Removed: 1, Changed: 1, Identical: 1}, users.Result.Summary())
	require.Len(t, users.Result.Changed, 1)
	assert.Equal(t, "name", users.Result.Changed[0].Changes[0].Field)

	items := report.Tables[1]
	assert.False(t, items.Result.HasDiff())

	assert.True(t, report.HasDiff())
	assert.Equal(t, domain.DiffSummary{Added: 1, Removed: 1, Changed: 1, Identical: 3}, report.Totals())
	_, ok := report.Table("items")
	assert.True(t, ok)
}

func TestRun_UsesSnapshotOfConfig(t *testing.T) {
	a, b := testutil.Snapshots(t)
	svc := NewService(ServiceDeps{})
	session, err := svc.LoadDatabases(context.Background(), a, b)
	require.NoError(t, err)

	cs := session.Config
	cs.SelectAll([]string{"items"})
	report, err := svc.Run(context.Background(), session, cs)
	require.NoError(t, err)

	cs.SelectAll([]string{"users"})
	require.Len(t, report.Tables, 1)
	assert.Equal(t, "items", report.Tables[0].Name)
}

func TestRun_NothingSelected(t *testing.T) {
	a, b := testutil.Snapshots(t)
	svc := NewService(ServiceDeps{})
	session, err := svc.LoadDatabases(context.Background(), a, b)
	require.NoError(t, err)

	session.Config.SelectNone()
	_, err = svc.Run(context.Background(), session, session.Config)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "no tables selected")
}

func TestRun_UnknownTable(t *testing.T) {
	a, b := testutil.Snapshots(t)
	svc := NewService(ServiceDeps{})
	session, err := svc.LoadDatabases(context.Background(), a, b)
	require.NoError(t, err)

	session.Config.SelectAll([]string{"legacy"})
	_, err = svc.Run(context.Background(), session, session.Config)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestRun_StrictKeys(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteSQLite(t, dir, "a.db",
		`CREATE TABLE t (code TEXT, v TEXT)`,
		`INSERT INTO t VALUES ('x', '1'), ('x', '2')`)
	b := testutil.WriteSQLite(t, dir, "b.db",
		`CREATE TABLE t (code TEXT, v TEXT)`,
		`INSERT INTO t VALUES ('x', '2')`)

	svc := NewService(ServiceDeps{Engine: diff.NewEngine(diff.WithStrictKeys(true))})
	session, err := svc.LoadDatabases(context.Background(), a, b)
	require.NoError(t, err)
	require.Equal(t, []string{"code"}, session.Config.Table("t").PrimaryKeys)

	_, err = svc.Run(context.Background(), session, session.Config)
	var dke *domain.DuplicateKeyError
	require.ErrorAs(t, err, &dke)
	assert.Equal(t, "source", dke.Side)
}

func TestLoadDatabases_TargetOnlyColumnNotInferred(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteSQLite(t, dir, "a.db",
		`CREATE TABLE people (email TEXT, name TEXT)`,
		`INSERT INTO people VALUES ('a@x.io', 'Ann'), ('b@x.io', 'Bob'), ('c@x.io', 'Cid')`)
	b := testutil.WriteSQLite(t, dir, "b.db",
		`CREATE TABLE people (email TEXT, name TEXT, person_id INTEGER)`,
		`INSERT INTO people VALUES ('a@x.io', 'Ann', 1), ('b@x.io', 'Bob', 2), ('c@x.io', 'Cid', 3)`)

	svc := NewService(ServiceDeps{})
	session, err := svc.LoadDatabases(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "name", "person_id"}, session.Columns("people"))
	require.Equal(t, []string{"email"}, session.Config.Table("people").PrimaryKeys)

	report, err := svc.Run(context.Background(), session, session.Config)
	require.NoError(t, err)
	res := report.Tables[0].Result
	assert.Equal(t, domain.DiffSummary{Changed: 3}, res.Summary())
	for _, c := range res.Changed {
		require.Len(t, c.Changes, 1)
		assert.Equal(t, "person_id", c.Changes[0].Field)
	}

	svc.AutoConfigure(session, session.Config, "person")
	assert.NotContains(t, session.Config.Table("people").PrimaryKeys, "person_id")
}

func TestAutoConfigure(t *testing.T) {
	a, b := testutil.Snapshots(t)
	svc := NewService(ServiceDeps{})
	session, err := svc.LoadDatabases(context.Background(), a, b)
	require.NoError(t, err)

	cs := session.Config
	cs.ToggleIgnored("users", "updated")
	cs.SelectAll([]string{"users"})
	before := cs.Version

	svc.AutoConfigure(session, cs, "nam")
	assert.Equal(t, []string{"name"}, cs.Table("users").PrimaryKeys)
	assert.Empty(t, cs.Table("users").Ignored)
	assert.Equal(t, []string{"sku"}, cs.Table("items").PrimaryKeys, "unselected tables keep their keys")
	assert.Greater(t, cs.Version, before)
}

func TestCompare(t *testing.T) {
	a, b := testutil.Snapshots(t)
	report, err := NewService(ServiceDeps{}).Compare(context.Background(), a, b, "")
	require.NoError(t, err)
	require.Len(t, report.Tables, 2)
	// "updated" changed on every matched row.
	assert.Equal(t, 2, report.Tables[0].Result.Summary().Changed)
}

func TestLoadDatabases_Remote(t *testing.T) {
	a, b := testutil.Snapshots(t)
	resolver := storage.NewResolver(t.TempDir(), nil)
	fetcher := &testutil.MockFetcher{}
	fetcher.ServeFile(t, "s3://bucket/snaps/old.db", a)
	resolver.Register(fetcher, "s3")

	svc := NewService(ServiceDeps{Resolver: resolver})
	session, err := svc.LoadDatabases(context.Background(), "s3://bucket/snaps/old.db", b)
	require.NoError(t, err)
	assert.Equal(t, "old", session.Source.Name)
	assert.Equal(t, []string{"users", "items"}, session.Common)

	_, err = svc.LoadDatabases(context.Background(), "s3://bucket/missing.db", b)
	assert.Error(t, err)
	assert.Equal(t, []string{"s3://bucket/snaps/old.db", "s3://bucket/missing.db"}, fetcher.Calls())
}

func TestCompareWorkbooks_CSV(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "before.csv", "id,qty\n1,5\n2,6\n")
	b := testutil.WriteFile(t, dir, "after.csv", "id,qty\n1,5\n2,7\n3,1\n")

	report, err := NewService(ServiceDeps{}).CompareWorkbooks(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, report.Sheets, 1)

	sd := report.Sheets[0]
	assert.Equal(t, "before", sd.Sheet)
	assert.Equal(t, 0, sd.KeyColumn)
	assert.Equal(t, map[domain.RowChange]int{domain.RowSame: 1, domain.RowModify: 1, domain.RowAdd: 1}, sd.Counts())
	assert.True(t, report.HasDiff())
}

func TestCompareWorkbooks_NoCommonSheets(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.csv", "x\n1\n")
	b := filepath.Join(dir, "b.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "other"))
	require.NoError(t, f.SaveAs(b))
	require.NoError(t, f.Close())

	_, err := NewService(ServiceDeps{}).CompareWorkbooks(context.Background(), a, b)
	var nct *domain.NoComparableTablesError
	require.ErrorAs(t, err, &nct)
	assert.Equal(t, "sheet", nct.Kind)
}
