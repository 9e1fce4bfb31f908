package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"VendorRadar/pkg/model"
)

func TestConcatenate(t *testing.T) {
	if got := Concatenate(nil); got != "" {
		t.Fatalf("expected empty content, got %q", got)
	}

	got := Concatenate([]model.KnowledgeFile{
		{Name: "a.md", Content: "alpha"},
		{Name: "b.txt", Content: "beta"},
	})
	want := "--- Start of a.md ---\n\nalpha\n\n--- End of a.md ---\n\n--- Start of b.txt ---\n\nbeta\n\n--- End of b.txt ---"
	if got != want {
		t.Fatalf("unexpected content:\n%q\nwant:\n%q", got, want)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	files := []model.KnowledgeFile{
		{Name: "sop.md", Content: "v1", UploadedAt: base},
		{Name: "carriers.csv", Content: "dhl,ups", UploadedAt: base.Add(time.Hour)},
		{Name: "sop.md", Content: "v2", UploadedAt: base.Add(2 * time.Hour)},
	}
	for _, f := range files {
		if err := store.Add(ctx, f); err != nil {
			t.Fatalf("Add(%s) failed: %v", f.Name, err)
		}
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "sop.md" || infos[1].Name != "carriers.csv" {
		t.Fatalf("expected newest first without duplicates, got %+v", infos)
	}

	content, _ := store.Content(ctx)
	want := Concatenate([]model.KnowledgeFile{files[1], files[2]})
	if content != want {
		t.Fatalf("overwritten file should move to the end:\n%q", content)
	}

	if err := store.Delete(ctx, "missing.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "sop.md"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Add(ctx, model.KnowledgeFile{Name: " "}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if content, _ := store.Content(ctx); content != "" {
		t.Fatalf("expected empty content after clear, got %q", content)
	}
}

func TestMemoryStore_StampsUploadTime(t *testing.T) {
	store := NewMemoryStore()
	stamp := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return stamp }

	if err := store.Add(context.Background(), model.KnowledgeFile{Name: "notes.txt", Content: "x"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	infos, _ := store.List(context.Background())
	if !infos[0].UploadedAt.Equal(stamp) {
		t.Fatalf("expected upload time %v, got %v", stamp, infos[0].UploadedAt)
	}
}
