package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ingest/internal/candidates"
)

func useTempStore(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	testChdir(t, dir)
	t.Setenv("ENV", "dev")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "resumes.db"))
	t.Setenv("OUTPUT_STORE", "local")
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "out"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	searchFilters = candidates.Filters{}
	searchXLSX = ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchRequiresFilter(t *testing.T) {
	useTempStore(t)
	_, err := execute(t, "search")
	require.ErrorIs(t, err, candidates.ErrEmptyFilters)
}

func TestCollectThenSearch(t *testing.T) {
	useTempStore(t)
	outputs := filepath.Join(t.TempDir(), "outputs")
	require.NoError(t, writeFile(filepath.Join(outputs, "a.json"), `[{"Name":"Ada","Emails":"ada@x.com","Mobile":"555","Graduation":"BSc"}]`))
	require.NoError(t, writeFile(filepath.Join(outputs, "b.json"), `{"raw_llm_output":"no records here"}`))

	out, err := execute(t, "collect", outputs)
	require.NoError(t, err)
	assert.Contains(t, out, "inserted: 1")
	assert.Contains(t, out, "unparsed: b.json")

	out, err = execute(t, "search", "--graduation", "bsc")
	require.NoError(t, err)
	var records []candidates.StoredRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Ada", records[0].Name)
}

func writeFile(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(body), 0o644)
}

// testChdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
