package memory

import (
	"context"
	"testing"
)

func openTestProvider(t *testing.T, workspace string) *SQLiteProvider {
	t.Helper()
	p, err := OpenSQLite(t.TempDir(), workspace)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestSQLiteRoundTrip(t *testing.T) {
	p := openTestProvider(t, "/repo/app")
	ctx := context.Background()

	for _, path := range []string{"main.go", "handler.go", "main.go"} {
		if err := p.RememberFile(ctx, path); err != nil {
			t.Fatalf("RememberFile(%q): %v", path, err)
		}
	}
	if err := p.RememberPattern(ctx, "Format Code "); err != nil {
		t.Fatalf("RememberPattern: %v", err)
	}
	if err := p.RememberPattern(ctx, "format code"); err != nil {
		t.Fatalf("RememberPattern repeat: %v", err)
	}

	sig, err := p.GetContextSignals(ctx, "format this")
	if err != nil {
		t.Fatalf("GetContextSignals: %v", err)
	}
	if len(sig.Files) != 2 {
		t.Fatalf("repeated file must upsert, got %v", sig.Files)
	}
	if len(sig.PriorPatterns) != 1 || sig.PriorPatterns[0] != "format code" {
		t.Fatalf("pattern must be normalized and upserted, got %v", sig.PriorPatterns)
	}
}

func TestSQLiteWorkspaceIsolation(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := OpenSQLite(dir, "/repo/a")
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := OpenSQLite(dir, "/repo/b")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := a.RememberFile(ctx, "only-in-a.go"); err != nil {
		t.Fatal(err)
	}

	sig, err := b.GetContextSignals(ctx, "anything")
	if err != nil {
		t.Fatal(err)
	}
	if len(sig.Files) != 0 {
		t.Fatalf("workspace b must not see workspace a files, got %v", sig.Files)
	}
}

func TestSQLiteEmptyDatabase(t *testing.T) {
	p := openTestProvider(t, "/repo/empty")
	sig, err := p.GetContextSignals(context.Background(), "anything")
	if err != nil {
		t.Fatalf("empty database must not error: %v", err)
	}
	if len(sig.Files) != 0 || len(sig.PriorPatterns) != 0 {
		t.Fatalf("expected empty signals, got %+v", sig)
	}
}

func TestSQLiteBlankPatternIgnored(t *testing.T) {
	p := openTestProvider(t, "/repo/app")
	if err := p.RememberPattern(context.Background(), "   "); err != nil {
		t.Fatalf("blank pattern must be a no-op, got %v", err)
	}
	sig, err := p.GetContextSignals(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(sig.PriorPatterns) != 0 {
		t.Fatalf("blank pattern must not be stored, got %v", sig.PriorPatterns)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	p, err := OpenSQLite(dir, "/repo/app")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.RememberFile(ctx, "kept.go"); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenSQLite(dir, "/repo/app")
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	sig, err := reopened.GetContextSignals(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(sig.Files) != 1 || sig.Files[0] != "kept.go" {
		t.Fatalf("data must survive reopen, got %v", sig.Files)
	}
}
