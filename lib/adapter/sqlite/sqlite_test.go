package sqlite_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stashkv/stash/lib/adapter"
	"github.com/stashkv/stash/lib/adapter/sqlite"
	adaptertesting "github.com/stashkv/stash/lib/adapter/testing"
	"github.com/stashkv/stash/lib/store"
	storetesting "github.com/stashkv/stash/lib/store/testing"
)

func TestSqliteAdapter(t *testing.T) {
	adaptertesting.RunAdapterTests(t, "sqlite", func() adapter.Adapter {
		return sqlite.New(sqlite.Options{
			Path: filepath.Join(t.TempDir(), "stash.db"),
		})
	})
}

func TestSqliteStore(t *testing.T) {
	// every store gets its own table in a shared database file
	dir := t.TempDir()
	tables := 0

	storetesting.RunStoreTests(t, "sqlite", func(t *testing.T, opts store.Options) store.IStore {
		tables++
		adp := sqlite.New(sqlite.Options{
			Path:  filepath.Join(dir, "stash.db"),
			Table: fmt.Sprintf("stash_%d", tables),
		})
		s, err := store.NewStore(adp, opts)
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		return s
	})
}

func TestSqliteRejectsBadTableName(t *testing.T) {
	adp := sqlite.New(sqlite.Options{
		Path:  filepath.Join(t.TempDir(), "stash.db"),
		Table: "pairs; DROP TABLE pairs",
	})
	if err := adp.Setup(); err == nil {
		t.Errorf("expected setup to reject a non-identifier table name")
	}
}

func TestSqliteRequiresPath(t *testing.T) {
	if err := sqlite.New(sqlite.Options{}).Setup(); err == nil {
		t.Errorf("expected setup to fail without a database path")
	}
}

func TestSqlitePersistsAcrossAdapters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash.db")

	first := sqlite.New(sqlite.Options{Path: path})
	if err := first.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := first.Put("durable", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := first.Teardown("handover"); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}

	second := sqlite.New(sqlite.Options{Path: path})
	if err := second.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer second.Teardown("test finished")

	value, found, err := second.Fetch("durable")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !found || string(value) != "v" {
		t.Errorf("Fetch = (%s, %v), want (v, true)", value, found)
	}
}
