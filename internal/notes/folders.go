package notes

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/errs"
)

// CreateFolder adds an empty folder under params.ParentID, or at the root
// when ParentID is nil. The depth is derived from the parent.
func (s *Service) CreateFolder(ctx context.Context, params CreateFolderParams) (*Folder, error) {
	name, err := normalizeFolderName(params.Name)
	if err != nil {
		return nil, err
	}

	var created db.Folder
	err = s.store.WithTx(ctx, func(q *db.Queries) error {
		if _, err := s.requireUser(ctx, q); err != nil {
			return err
		}
		var parentID sql.NullString
		var depth int64
		if params.ParentID != nil && *params.ParentID != "" {
			parent, err := s.getFolder(ctx, q, *params.ParentID)
			if err != nil {
				return err
			}
			parentID = sql.NullString{String: parent.ID, Valid: true}
			depth = parent.Depth + 1
		}
		if err := validateDepth(depth); err != nil {
			return err
		}
		if params.Depth != nil && int64(*params.Depth) != depth {
			s.logger(ctx).Debug("folder_depth_ignored", "requested", *params.Depth, "derived", depth)
		}

		created, err = q.CreateFolder(ctx, db.CreateFolderParams{
			ID:        uuid.New().String(),
			UserID:    s.userID,
			ParentID:  parentID,
			Name:      name,
			Depth:     depth,
			CreatedAt: s.nowMillis(),
		})
		if err != nil {
			return fmt.Errorf("insert folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	folder := folderFromRow(created)
	return &folder, nil
}

// ListFolders returns every folder of the user: the initial folder first,
// then by depth and name.
func (s *Service) ListFolders(ctx context.Context) ([]Folder, error) {
	q := s.store.Queries()
	if _, err := s.requireUser(ctx, q); err != nil {
		return nil, err
	}
	rows, err := q.ListFoldersByUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	out := make([]Folder, 0, len(rows))
	for _, f := range rows {
		out = append(out, folderFromRow(f))
	}
	return out, nil
}

// GetFolder returns one folder of the user.
func (s *Service) GetFolder(ctx context.Context, id string) (*Folder, error) {
	q := s.store.Queries()
	if _, err := s.requireUser(ctx, q); err != nil {
		return nil, err
	}
	row, err := s.getFolder(ctx, q, id)
	if err != nil {
		return nil, err
	}
	folder := folderFromRow(row)
	return &folder, nil
}

// UpdateFolder patches the mutable fields and refreshes updatedAt.
func (s *Service) UpdateFolder(ctx context.Context, id string, params UpdateFolderParams) (*Folder, error) {
	var name string
	if params.Name != nil {
		var err error
		if name, err = normalizeFolderName(*params.Name); err != nil {
			return nil, err
		}
	}

	var updated db.Folder
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		if _, err := s.requireUser(ctx, q); err != nil {
			return err
		}
		current, err := s.getFolder(ctx, q, id)
		if err != nil {
			return err
		}
		updated = current
		if params.Name != nil {
			updated.Name = name
		}
		updated.UpdatedAt = s.nowMillis()
		return q.RenameFolder(ctx, s.userID, updated.ID, updated.Name, updated.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	folder := folderFromRow(updated)
	return &folder, nil
}

// MoveFolder reparents a folder, or moves it to the root when newParentID is
// nil, and recomputes depth for the whole moved subtree. Counts are per
// folder, so they do not change.
func (s *Service) MoveFolder(ctx context.Context, id string, newParentID *string) (*Folder, error) {
	var moved db.Folder
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		if _, err := s.requireUser(ctx, q); err != nil {
			return err
		}
		folder, err := s.getFolder(ctx, q, id)
		if err != nil {
			return err
		}
		if folder.IsInitial {
			return errs.New(errs.FailedPrecondition, "the initial folder cannot be moved")
		}

		var parentID sql.NullString
		var depth int64
		if newParentID != nil && *newParentID != "" {
			parent, err := s.getFolder(ctx, q, *newParentID)
			if err != nil {
				return err
			}
			inside, err := s.isWithin(ctx, q, parent, folder.ID)
			if err != nil {
				return err
			}
			if inside {
				return errs.New(errs.InvalidArgument, "a folder cannot be moved into itself or its subfolders")
			}
			parentID = sql.NullString{String: parent.ID, Valid: true}
			depth = parent.Depth + 1
		}

		// Depth of every descendant relative to the moved folder.
		subtree, err := s.subtreeDepths(ctx, q, folder.ID)
		if err != nil {
			return err
		}
		for _, rel := range subtree {
			if err := validateDepth(depth + rel); err != nil {
				return err
			}
		}

		now := s.nowMillis()
		if err := q.SetFolderParent(ctx, db.SetFolderParentParams{
			ID:        folder.ID,
			UserID:    s.userID,
			ParentID:  parentID,
			Depth:     depth,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("move folder: %w", err)
		}
		for childID, rel := range subtree {
			if childID == folder.ID {
				continue
			}
			if err := q.SetFolderDepth(ctx, s.userID, childID, depth+rel); err != nil {
				return fmt.Errorf("update descendant depth: %w", err)
			}
		}

		moved = folder
		moved.ParentID = parentID
		moved.Depth = depth
		moved.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	folder := folderFromRow(moved)
	return &folder, nil
}

// isWithin reports whether start is ancestorID or one of its descendants,
// by walking parent links upward from start.
func (s *Service) isWithin(ctx context.Context, q *db.Queries, start db.Folder, ancestorID string) (bool, error) {
	seen := map[string]bool{}
	cur := start
	for {
		if cur.ID == ancestorID {
			return true, nil
		}
		if !cur.ParentID.Valid || seen[cur.ID] {
			return false, nil
		}
		seen[cur.ID] = true
		next, err := s.getFolder(ctx, q, cur.ParentID.String)
		if err != nil {
			return false, err
		}
		cur = next
	}
}

// subtreeDepths maps every folder in the subtree rooted at rootID to its
// depth relative to the root (root = 0).
func (s *Service) subtreeDepths(ctx context.Context, q *db.Queries, rootID string) (map[string]int64, error) {
	depths := map[string]int64{rootID: 0}
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := q.ListChildFolders(ctx, s.userID, id)
		if err != nil {
			return nil, fmt.Errorf("list subfolders: %w", err)
		}
		for _, child := range children {
			if _, ok := depths[child.ID]; ok {
				continue
			}
			depths[child.ID] = depths[id] + 1
			queue = append(queue, child.ID)
		}
	}
	return depths, nil
}

// DeleteFolder removes a folder, every descendant folder, and every note
// stored anywhere in that subtree. The initial folder's count drops by the
// number of notes removed. The initial folder itself cannot be deleted.
func (s *Service) DeleteFolder(ctx context.Context, id string) (*DeleteFolderResult, error) {
	result := &DeleteFolderResult{}
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		initialID, err := s.initialFolderID(ctx, q)
		if err != nil {
			return err
		}
		folder, err := s.getFolder(ctx, q, id)
		if err != nil {
			return err
		}
		if folder.IsInitial || folder.ID == initialID {
			return errs.New(errs.FailedPrecondition, "the initial folder cannot be deleted")
		}

		folderIDs, noteIDs, err := s.collectSubtree(ctx, q, folder.ID)
		if err != nil {
			return err
		}

		if _, err := q.DeleteNotes(ctx, s.userID, noteIDs); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
		// Leaves first, so parent links never dangle mid-statement.
		leavesFirst := slices.Clone(folderIDs)
		slices.Reverse(leavesFirst)
		if _, err := q.DeleteFolders(ctx, s.userID, leavesFirst); err != nil {
			return fmt.Errorf("delete folders: %w", err)
		}
		if len(noteIDs) > 0 {
			if err := q.AdjustFolderNoteCount(ctx, s.userID, initialID, -int64(len(noteIDs))); err != nil {
				return countError("adjust note count of initial folder", err)
			}
		}

		result.FolderIDs = folderIDs
		result.NoteIDs = noteIDs
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger(ctx).Info("folder_deleted",
		"folder_id", id,
		"folders", len(result.FolderIDs),
		"notes", len(result.NoteIDs),
	)
	return result, nil
}

// collectSubtree walks the subtree rooted at rootID depth-first with an
// explicit stack. Folders come back in preorder (root first). A folder seen
// twice is skipped, so corrupt parent links cannot loop forever.
func (s *Service) collectSubtree(ctx context.Context, q *db.Queries, rootID string) (folderIDs, noteIDs []string, err error) {
	visited := map[string]bool{}
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		folderIDs = append(folderIDs, id)

		ids, err := q.ListNoteIDsByFolder(ctx, s.userID, id)
		if err != nil {
			return nil, nil, fmt.Errorf("list notes of folder %s: %w", id, err)
		}
		noteIDs = append(noteIDs, ids...)

		children, err := q.ListChildFolders(ctx, s.userID, id)
		if err != nil {
			return nil, nil, fmt.Errorf("list subfolders of %s: %w", id, err)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i].ID)
		}
	}
	return folderIDs, noteIDs, nil
}
