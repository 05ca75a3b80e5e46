package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/caseport/caseport/internal/store"
)

func TestFolderResolver_CreatesChain(t *testing.T) {
	ms := store.NewMemStore()
	r := newFolderResolver(ms, "r1")

	leaf, err := r.Resolve(context.Background(), "UI/Login/Tests", SplitSlash, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if leaf == "" {
		t.Fatal("empty leaf id")
	}
	if ms.FolderCreates != 3 {
		t.Errorf("FolderCreates = %d, want 3", ms.FolderCreates)
	}
}

func TestFolderResolver_IdempotentAcrossCalls(t *testing.T) {
	ms := store.NewMemStore()
	r := newFolderResolver(ms, "r1")
	ctx := context.Background()

	first, err := r.Resolve(ctx, "Suite/Smoke", SplitSlash, nil)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}

	// Same path, different casing, fresh resolver: hits the store, not
	// the cache, and still reuses every segment.
	r2 := newFolderResolver(ms, "r1")
	second, err := r2.Resolve(ctx, "suite/SMOKE", SplitSlash, nil)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first != second {
		t.Errorf("leaf ids differ: %q vs %q", first, second)
	}
	if ms.FolderCreates != 2 {
		t.Errorf("FolderCreates = %d, want 2", ms.FolderCreates)
	}
}

func TestFolderResolver_SameNameDifferentParents(t *testing.T) {
	ms := store.NewMemStore()
	r := newFolderResolver(ms, "r1")
	ctx := context.Background()

	a, err := r.Resolve(ctx, "UI/Tests", SplitSlash, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := r.Resolve(ctx, "API/Tests", SplitSlash, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a == b {
		t.Error("Tests under different parents resolved to the same folder")
	}
	if ms.FolderCreates != 4 {
		t.Errorf("FolderCreates = %d, want 4", ms.FolderCreates)
	}
}

func TestFolderResolver_UnderBaseFolder(t *testing.T) {
	ms := store.NewMemStore()
	ms.AddFolder(&store.Folder{ID: "base", RepositoryID: "r1", Name: "Imports"})
	r := newFolderResolver(ms, "r1")

	base := "base"
	leaf, err := r.Resolve(context.Background(), "Batch1", SplitNone, &base)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	f, err := ms.GetFolder(context.Background(), leaf)
	if err != nil {
		t.Fatalf("GetFolder: %v", err)
	}
	if f.ParentID == nil || *f.ParentID != "base" {
		t.Errorf("parent = %v, want base", f.ParentID)
	}
}

func TestFolderResolver_DeletedFolderNotMatched(t *testing.T) {
	ms := store.NewMemStore()
	ms.AddFolder(&store.Folder{ID: "dead", RepositoryID: "r1", Name: "Archive", Deleted: true})
	r := newFolderResolver(ms, "r1")

	leaf, err := r.Resolve(context.Background(), "Archive", SplitNone, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if leaf == "dead" {
		t.Error("resolved into a deleted folder")
	}
	if ms.FolderCreates != 1 {
		t.Errorf("FolderCreates = %d, want 1 (new folder beside the deleted one)", ms.FolderCreates)
	}
}

func TestFolderResolver_EmptyPath(t *testing.T) {
	r := newFolderResolver(store.NewMemStore(), "r1")

	for _, path := range []string{"", "  ", "///", " / / "} {
		if _, err := r.Resolve(context.Background(), path, SplitSlash, nil); !errors.Is(err, ErrEmptyFolderPath) {
			t.Errorf("Resolve(%q) err = %v, want ErrEmptyFolderPath", path, err)
		}
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		mode SplitMode
		want []string
	}{
		{"none keeps slashes", "A/B", SplitNone, []string{"A/B"}},
		{"slash", "A/B/C", SplitSlash, []string{"A", "B", "C"}},
		{"dot", "A.B", SplitDot, []string{"A", "B"}},
		{"angle", "A > B", SplitAngle, []string{"A", "B"}},
		{"trims segments", " A / B ", SplitSlash, []string{"A", "B"}},
		{"drops empty segments", "A//B/", SplitSlash, []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitPath(tt.path, tt.mode)
			if len(got) != len(tt.want) {
				t.Fatalf("splitPath(%q, %s) = %v, want %v", tt.path, tt.mode, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
