package notes

import (
	"context"
	"fmt"

	"github.com/jinwoo-notes/jinwoo/internal/db"
)

// CheckCounts recomputes every folder's noteCount from the notes table and
// returns the folders whose stored value disagrees. An empty result means the
// cache is consistent.
func (s *Service) CheckCounts(ctx context.Context) ([]CountMismatch, error) {
	return s.checkCounts(ctx, s.store.Queries())
}

// RepairCounts rewrites every mismatched count in one transaction and returns
// what it fixed.
func (s *Service) RepairCounts(ctx context.Context) ([]CountMismatch, error) {
	var fixed []CountMismatch
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		mismatches, err := s.checkCounts(ctx, q)
		if err != nil {
			return err
		}
		for _, m := range mismatches {
			if err := q.SetFolderNoteCount(ctx, s.userID, m.FolderID, m.Actual); err != nil {
				return fmt.Errorf("repair count of folder %s: %w", m.FolderID, err)
			}
		}
		fixed = mismatches
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(fixed) > 0 {
		s.logger(ctx).Warn("note_counts_repaired", "folders", len(fixed))
	}
	return fixed, nil
}

func (s *Service) checkCounts(ctx context.Context, q *db.Queries) ([]CountMismatch, error) {
	if _, err := s.requireUser(ctx, q); err != nil {
		return nil, err
	}
	folders, err := q.ListFoldersByUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	perFolder, err := q.CountNotesPerFolder(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}
	total, err := q.CountNotesByUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("count notes: %w", err)
	}

	direct := make(map[string]int64, len(perFolder))
	for _, c := range perFolder {
		direct[c.FolderID] = c.Count
	}

	var out []CountMismatch
	for _, f := range folders {
		actual := direct[f.ID]
		if f.IsInitial {
			actual = total
		}
		if f.NoteCount != actual {
			out = append(out, CountMismatch{
				FolderID:   f.ID,
				FolderName: f.Name,
				IsInitial:  f.IsInitial,
				Stored:     f.NoteCount,
				Actual:     actual,
			})
		}
	}
	return out, nil
}
