package sqlite

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/internal/datapackage"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// fixture holds CSV bodies below the header for a scaffolded package.
type fixture struct {
	tags      string
	things    string
	thingTags string
}

// newPackage scaffolds a package in a temp dir and writes the fixture rows.
func newPackage(t *testing.T, f fixture) string {
	t.Helper()
	dir := t.TempDir()

	pkg, err := datapackage.NewBuilder("test-package").
		Title("Test package").
		Description("Fixture package for storage tests.").
		Created(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).
		Resources(datapackage.DefaultResources()...).
		Build()
	require.NoError(t, err)
	require.NoError(t, datapackage.Scaffold(dir, pkg))

	writeCSVFile(t, dir, "tag.csv", "id,name,summary\n"+f.tags)
	writeCSVFile(t, dir, "thing.csv", "url,name,summary,category_id\n"+f.things)
	writeCSVFile(t, dir, "thing_tag.csv", "thing_id,tag_id\n"+f.thingTags)
	return dir
}

func writeCSVFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, datapackage.DataDir, name), []byte(body), 0o644))
}

func readCSVFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, datapackage.DataDir, name))
	require.NoError(t, err)
	return string(data)
}

// openStore opens dir with an in-memory staging ring and closes it on cleanup.
func openStore(t *testing.T, dir string, opts ...Option) *Store {
	t.Helper()
	return openStoreWith(t, types.Config{PackageDir: dir, Staging: types.MemoryStaging}, opts...)
}

func openStoreWith(t *testing.T, cfg types.Config, opts ...Option) *Store {
	t.Helper()
	s, err := Open(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seeded is a package with three tags and one categorised thing tagged
// with two of them.
var seeded = fixture{
	tags: "misc,Miscellaneous,\n" +
		"lang,Languages,Programming languages\n" +
		"web,Web,\n",
	things: "https://go.dev,Go,The Go language,lang\n",
	thingTags: "https://go.dev,web\n" +
		"https://go.dev,misc\n",
}

func strPtr(s string) *string { return &s }

// Sentinels from encoding/csv, aliased for table-driven tests.
var (
	csvFieldCount = csv.ErrFieldCount
	csvBareQuote  = csv.ErrBareQuote
)
