package diffconfig

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recdiff/internal/domain"
)

func sampleConfig() *domain.ConfigSet {
	cs := domain.NewConfigSet()
	cs.SetTable("users", domain.TableConfig{PrimaryKeys: []string{"id"}, Ignored: []string{"updated_at"}})
	cs.SetTable("orders", domain.TableConfig{PrimaryKeys: []string{"order_no", "line"}})
	cs.SelectAll([]string{"users", "orders"})
	cs.SetPattern("users", "phone", `\d{4}$`)
	return cs
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("cfg.YML"))
	assert.Equal(t, FormatYAML, FormatFor("/tmp/a.yaml"))
	assert.Equal(t, FormatJSON, FormatFor("cfg.json"))
	assert.Equal(t, FormatJSON, FormatFor("cfg"))
}

func TestEncode_JSONLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleConfig(), FormatJSON))

	out := buf.String()
	assert.Contains(t, out, `"tableConfigs"`)
	assert.Contains(t, out, `"selectedTables"`)
	assert.Contains(t, out, `"columnRegex"`)
	assert.Contains(t, out, `"ignore": []`, "empty lists are arrays, not null")
	assert.NotContains(t, out, "null")
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			want := sampleConfig()
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, want, format))

			got, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, want.Selected, got.Selected)
			assert.Equal(t, want.Patterns, got.Patterns)
			require.Len(t, got.Tables, 2)
			assert.Equal(t, []string{"id"}, got.Tables["users"].PrimaryKeys)
			assert.Equal(t, []string{"updated_at"}, got.Tables["users"].Ignored)
			assert.Equal(t, []string{"order_no", "line"}, got.Tables["orders"].PrimaryKeys)
			assert.Empty(t, got.Tables["orders"].Ignored)
		})
	}
}

func TestDecode_BrowserExport(t *testing.T) {
	in := `{
	  "tableConfigs": {"t": {"pks": ["code"], "ignore": ["ts"]}},
	  "selectedTables": ["t"],
	  "columnRegex": {"t": {"note": "\\d+", "blank": ""}}
	}`
	cs, err := Decode(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, domain.TableConfig{PrimaryKeys: []string{"code"}, Ignored: []string{"ts"}}, cs.Tables["t"])
	assert.Equal(t, domain.PatternMap{"t": {"note": `\d+`}}, cs.Patterns)
	assert.True(t, cs.IsSelected("t"))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"tableConfigs": {"t": {"pks": [""]}}}`), FormatJSON)
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = Decode(strings.NewReader(`{`), FormatJSON)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{}`), Format("toml"))
	assert.True(t, errors.As(err, &ve))
}

func TestDecode_EmptyYAML(t *testing.T) {
	cs, err := Decode(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cs.Tables)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cfg.json", "cfg.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, sampleConfig()))
		cs, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"users", "orders"}, cs.Selected)
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := domain.NewConfigSet()
	base.SetTable("users", domain.TableConfig{PrimaryKeys: []string{"uuid"}})
	base.SetTable("orders", domain.TableConfig{PrimaryKeys: []string{"id"}})
	base.SelectAll([]string{"users", "orders"})
	before := base.Version

	loaded := domain.NewConfigSet()
	loaded.Tables["users"] = domain.TableConfig{PrimaryKeys: []string{"id"}}
	loaded.Tables["legacy"] = domain.TableConfig{PrimaryKeys: []string{"id"}}
	loaded.Patterns["legacy"] = map[string]string{"x": "y"}
	loaded.Selected = []string{"users", "legacy"}

	skipped := Merge(base, loaded)
	assert.Equal(t, []string{"legacy"}, skipped)
	assert.Equal(t, []string{"id"}, base.Tables["users"].PrimaryKeys)
	assert.Equal(t, []string{"id"}, base.Tables["orders"].PrimaryKeys)
	assert.Equal(t, []string{"users"}, base.Selected)
	assert.Greater(t, base.Version, before)
}

func TestDecode_SelectedTablesPresence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		fmt  Format
		want []string
	}{
		{name: "json empty array", in: `{"selectedTables": []}`, fmt: FormatJSON, want: []string{}},
		{name: "yaml empty list", in: "selectedTables: []\n", fmt: FormatYAML, want: []string{}},
		{name: "json absent", in: `{}`, fmt: FormatJSON, want: nil},
		{name: "json null", in: `{"selectedTables": null}`, fmt: FormatJSON, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := Decode(strings.NewReader(tt.in), tt.fmt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cs.Selected)
		})
	}
}

func TestMerge_EmptySelectionDeselectsAll(t *testing.T) {
	base := domain.NewConfigSet()
	base.SetTable("users", domain.TableConfig{PrimaryKeys: []string{"id"}})
	base.SelectAll([]string{"users"})

	none := domain.NewConfigSet()
	none.SelectNone()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, none, FormatJSON))
	loaded, err := Decode(&buf, FormatJSON)
	require.NoError(t, err)

	Merge(base, loaded)
	assert.Empty(t, base.Selected)
	assert.False(t, base.IsSelected("users"))
}

func TestMerge_PatternsReplacedWholesale(t *testing.T) {
	base := domain.NewConfigSet()
	base.SetTable("users", domain.TableConfig{PrimaryKeys: []string{"id"}})
	base.SetTable("orders", domain.TableConfig{PrimaryKeys: []string{"id"}})
	base.SetPattern("users", "phone", `\d+`)
	base.SetPattern("orders", "ref", `[A-Z]+`)

	loaded, err := Decode(strings.NewReader(`{"columnRegex": {"users": {"email": "@.*"}}}`), FormatJSON)
	require.NoError(t, err)
	Merge(base, loaded)
	assert.Equal(t, domain.PatternMap{"users": {"email": "@.*"}}, base.Patterns)

	noPatterns, err := Decode(strings.NewReader(`{"selectedTables": ["users"]}`), FormatJSON)
	require.NoError(t, err)
	Merge(base, noPatterns)
	assert.Equal(t, domain.PatternMap{"users": {"email": "@.*"}}, base.Patterns, "a file without columnRegex keeps patterns")
}
