package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recdiff/internal/config"
	"recdiff/internal/domain"
	"recdiff/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		ListenAddr:     "127.0.0.1:0",
		PageSize:       config.DefaultPageSize,
		MaxParallel:    2,
		PatternTimeout: config.DefaultPatternTimeout,
		DownloadDir:    "",
	}
}

func newApp(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), Deps{Cfg: testConfig()})
	require.NoError(t, err)
	return a
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Deps{})
	assert.Error(t, err)
}

func TestPrepare(t *testing.T) {
	a, b := testutil.Snapshots(t)
	cfgFile := testutil.WriteFile(t, t.TempDir(), "diff.yaml", `
tableConfigs:
  users:
    pks: [id]
    ignore: [updated]
  gone:
    pks: [x]
selectedTables: [users, items]
columnRegex:
  users:
    name: "[a-z]{3}"
`)

	tests := []struct {
		name     string
		in       Inputs
		selected []string
		users    domain.TableConfig
	}{
		{
			name:     "proposed configuration",
			in:       Inputs{Source: a, Target: b},
			selected: []string{"users", "items"},
			users:    domain.TableConfig{PrimaryKeys: []string{"id"}},
		},
		{
			name:     "configuration file",
			in:       Inputs{Source: a, Target: b, ConfigFile: cfgFile},
			selected: []string{"users", "items"},
			users:    domain.TableConfig{PrimaryKeys: []string{"id"}, Ignored: []string{"updated"}},
		},
		{
			name:     "table selection",
			in:       Inputs{Source: a, Target: b, Tables: []string{"users"}},
			selected: []string{"users"},
			users:    domain.TableConfig{PrimaryKeys: []string{"id"}},
		},
		{
			name:     "keyword after file",
			in:       Inputs{Source: a, Target: b, ConfigFile: cfgFile, Keyword: "nam"},
			selected: []string{"users", "items"},
			users:    domain.TableConfig{PrimaryKeys: []string{"name"}},
		},
		{
			name:     "global ignore",
			in:       Inputs{Source: a, Target: b, Ignore: "Updated, label"},
			selected: []string{"users", "items"},
			users:    domain.TableConfig{PrimaryKeys: []string{"id"}, Ignored: []string{"updated"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, cs, err := newApp(t).Prepare(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Same(t, session.Config, cs)
			assert.Equal(t, tt.selected, cs.Selected)
			assert.Equal(t, tt.users.PrimaryKeys, cs.Table("users").PrimaryKeys)
			assert.ElementsMatch(t, tt.users.Ignored, cs.Table("users").Ignored)
		})
	}
}

func TestPrepare_PatternsFromFile(t *testing.T) {
	a, b := testutil.Snapshots(t)
	cfgFile := testutil.WriteFile(t, t.TempDir(), "diff.json",
		`{"tableConfigs":{},"selectedTables":null,"columnRegex":{"users":{"name":"^b"}}}`)

	_, cs, err := newApp(t).Prepare(context.Background(), Inputs{Source: a, Target: b, ConfigFile: cfgFile})
	require.NoError(t, err)
	assert.Equal(t, "^b", cs.Patterns.Lookup("users", "name"))
}

func TestPrepare_MissingConfigFile(t *testing.T) {
	a, b := testutil.Snapshots(t)
	_, _, err := newApp(t).Prepare(context.Background(), Inputs{Source: a, Target: b, ConfigFile: "/nonexistent/diff.json"})
	assert.Error(t, err)
}

func TestPrepare_RemoteConfigFile(t *testing.T) {
	a, b := testutil.Snapshots(t)
	app := newApp(t)
	fetcher := &testutil.MockFetcher{Objects: map[string][]byte{
		"s3://configs/diff.json": []byte(`{"tableConfigs":{"users":{"pks":["id"],"ignore":["updated"]}}}`),
	}}
	app.Resolver.Register(fetcher, "s3")

	_, cs, err := app.Prepare(context.Background(), Inputs{Source: a, Target: b, ConfigFile: "s3://configs/diff.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"updated"}, cs.Table("users").Ignored)
	assert.Equal(t, []string{"s3://configs/diff.json"}, fetcher.Calls())
}

func TestBuild_Databases(t *testing.T) {
	a, b := testutil.Snapshots(t)
	rep, sheets, err := newApp(t).Build(context.Background(), Inputs{Source: a, Target: b, Ignore: "updated"})
	require.NoError(t, err)
	assert.Nil(t, sheets)
	require.NotNil(t, rep)
	assert.Equal(t, domain.DiffSummary{Added: 1, Removed: 1, Changed: 1, Identical: 3}, rep.Totals())
}

func TestBuild_Workbooks(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteCSV(t, dir, "parts.csv", []string{"part_no", "qty"}, []string{"P1", "1"})
	b := testutil.WriteCSV(t, dir, "parts_new.csv", []string{"part_no", "qty"}, []string{"P1", "2"})

	rep, sheets, err := newApp(t).Build(context.Background(), Inputs{Source: a, Target: b})
	require.NoError(t, err)
	assert.Nil(t, rep)
	require.NotNil(t, sheets)
	require.Len(t, sheets.Sheets, 1)
	assert.True(t, sheets.HasDiff())
}

func TestRouter(t *testing.T) {
	a, b := testutil.Snapshots(t)
	app := newApp(t)
	rep, _, err := app.Build(context.Background(), Inputs{Source: a, Target: b})
	require.NoError(t, err)

	srv := httptest.NewServer(app.Router(rep, nil))
	defer srv.Close()

	for _, path := range []string{"/", "/tables/users", "/report.json", "/healthz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), path)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer("127.0.0.1:0", http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, "", "", nil) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_ListenError(t *testing.T) {
	srv := NewServer("127.0.0.1:-1", http.NotFoundHandler())
	err := Serve(context.Background(), srv, "", "", nil)
	assert.Error(t, err)
}
