package catalog

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestStoreReloadSwapsAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	writeFile(t, path, "skills:\n  - id: first\n")

	store, err := NewStore(NewLoader([]Layer{{Name: "only", Path: path}}, zap.NewNop()))
	if err != nil {
		t.Fatal(err)
	}

	before := store.Snapshot()
	if len(before.Entries(KindSkill)) != 1 || before.Entries(KindSkill)[0].ID != "first" {
		t.Fatalf("unexpected initial snapshot: %+v", before.Entries(KindSkill))
	}

	writeFile(t, path, "skills:\n  - id: first\n  - id: second\n")
	if err := store.Reload(); err != nil {
		t.Fatal(err)
	}

	after := store.Snapshot()
	if len(after.Entries(KindSkill)) != 2 {
		t.Fatalf("reload not visible: %+v", after.Entries(KindSkill))
	}
	// The old snapshot is untouched; in-flight calls holding it stay
	// consistent.
	if len(before.Entries(KindSkill)) != 1 {
		t.Fatal("reload mutated a held snapshot")
	}
}

func TestStoreReloadFailureKeepsOldSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	writeFile(t, path, "skills:\n  - id: first\n")

	store, err := NewStore(NewLoader([]Layer{{Name: "only", Path: path}}, zap.NewNop()))
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, "skills: [\n")
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error for unparsable file")
	}
	if len(store.Snapshot().Entries(KindSkill)) != 1 {
		t.Fatal("failed reload must keep the previous snapshot")
	}
}

func TestNewStaticStore(t *testing.T) {
	snap := NewSnapshot([]Entry{{ID: "s"}}, []Entry{{ID: "a"}})
	store := NewStaticStore(snap)
	if store.Snapshot() != snap {
		t.Fatal("static store must serve the given snapshot")
	}
	if err := store.Reload(); err == nil {
		t.Fatal("static store has no loader; Reload must fail")
	}
}
