package notes

import (
	"context"
	"maps"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/testdb"
)

// =============================================================================
// Property: note counts match the notes table and every folder sits one
// level below its parent after any sequence of creates, moves and deletes
// =============================================================================

func testNoteCounts_StayConsistent_Properties(t *rapid.T) {
	store, err := testdb.NewInMemory("counts")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	svc, initialID := seedUser(t, store)

	folders := []string{initialID}
	notesByID := map[string]string{} // note id -> folder id

	steps := rapid.IntRange(1, 25).Draw(t, "steps")
	for i := 0; i < steps; i++ {
		switch rapid.IntRange(0, 5).Draw(t, "op") {
		case 0:
			var parent *string
			if p := rapid.SampledFrom(folders).Draw(t, "parent"); p != initialID {
				parent = &p
			}
			f, err := svc.CreateFolder(ctx, CreateFolderParams{Name: "f", ParentID: parent})
			if err != nil {
				t.Fatalf("CreateFolder: %v", err)
			}
			folders = append(folders, f.ID)
		case 1, 2:
			folderID := rapid.SampledFrom(folders).Draw(t, "folder")
			n, err := svc.CreateNote(ctx, folderID, "t", "c")
			if err != nil {
				t.Fatalf("CreateNote: %v", err)
			}
			notesByID[n.ID] = folderID
		case 3:
			if len(notesByID) == 0 {
				continue
			}
			id := rapid.SampledFrom(slices.Sorted(maps.Keys(notesByID))).Draw(t, "note")
			view := notesByID[id]
			if rapid.Bool().Draw(t, "viaInitial") {
				view = initialID
			}
			if err := svc.DeleteNote(ctx, id, view); err != nil {
				t.Fatalf("DeleteNote: %v", err)
			}
			delete(notesByID, id)
		case 4:
			if len(folders) < 2 {
				continue
			}
			victim := rapid.SampledFrom(folders[1:]).Draw(t, "victim")
			res, err := svc.DeleteFolder(ctx, victim)
			if err != nil {
				t.Fatalf("DeleteFolder: %v", err)
			}
			gone := map[string]bool{}
			for _, id := range res.FolderIDs {
				gone[id] = true
			}
			kept := folders[:0]
			for _, id := range folders {
				if !gone[id] {
					kept = append(kept, id)
				}
			}
			folders = kept
			for _, id := range res.NoteIDs {
				delete(notesByID, id)
			}
		case 5:
			if len(folders) < 2 {
				continue
			}
			mover := rapid.SampledFrom(folders[1:]).Draw(t, "mover")
			var parent *string
			if p := rapid.SampledFrom(folders).Draw(t, "newParent"); p != initialID {
				parent = &p
			}
			_, err := svc.MoveFolder(ctx, mover, parent)
			// Moving a folder into itself or below itself is refused.
			if err != nil && errs.CodeOf(err) != errs.InvalidArgument {
				t.Fatalf("MoveFolder: %v", err)
			}
		}

		mismatches, err := svc.CheckCounts(ctx)
		if err != nil {
			t.Fatalf("CheckCounts: %v", err)
		}
		if len(mismatches) != 0 {
			t.Fatalf("counts drifted after step %d: %+v", i, mismatches)
		}
		checkDepths(t, svc, i)
	}

	initial, err := svc.GetFolder(ctx, initialID)
	if err != nil {
		t.Fatalf("GetFolder: %v", err)
	}
	// The welcome note is never deleted here, so it is counted too.
	if want := len(notesByID) + 1; initial.NoteCount != want {
		t.Fatalf("initial folder count = %d, want %d", initial.NoteCount, want)
	}
}

func checkDepths(t *rapid.T, svc *Service, step int) {
	list, err := svc.ListFolders(context.Background())
	if err != nil {
		t.Fatalf("ListFolders: %v", err)
	}
	byID := make(map[string]Folder, len(list))
	for _, f := range list {
		byID[f.ID] = f
	}
	for _, f := range list {
		want := 0
		if f.ParentID != nil {
			parent, ok := byID[*f.ParentID]
			if !ok {
				t.Fatalf("step %d: folder %s has missing parent %s", step, f.ID, *f.ParentID)
			}
			want = parent.Depth + 1
		}
		if f.Depth != want {
			t.Fatalf("step %d: folder %s depth = %d, want %d", step, f.ID, f.Depth, want)
		}
	}
}

func TestNoteCounts_StayConsistent_Properties(t *testing.T) {
	rapid.Check(t, testNoteCounts_StayConsistent_Properties)
}
