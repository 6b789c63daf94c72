package local

import (
	"context"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestPutOpenList(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	if _, err := store.Put(ctx, "batch/b.json", "application/json", strings.NewReader(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	n, err := store.Put(ctx, "a.json", "application/json", strings.NewReader(`{"raw_llm_output":"x"}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len(`{"raw_llm_output":"x"}`)) {
		t.Fatalf("unexpected size %d", n)
	}
	if _, err := store.Put(ctx, "notes.txt", "text/plain", strings.NewReader("skip")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	keys, err := store.List(ctx, ".json")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"a.json", "batch/b.json"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}

	rc, err := store.Open(ctx, "batch/b.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "[]" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Put(context.Background(), "../escape.json", "application/json", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestListMissingDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing"))
	keys, err := store.List(context.Background(), ".json")
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected empty list, got %v %v", keys, err)
	}
}
