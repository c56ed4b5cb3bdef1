// Package export writes a user's notebook out as a tree of markdown files.
package export

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/notes"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

const (
	ManifestName        = "manifest.yaml"
	markdownContentType = "text/markdown; charset=utf-8"
	yamlContentType     = "application/yaml"
	timestampLayout     = "20060102T150405Z"
)

// File is one exported note.
type File struct {
	Path   string `yaml:"path" json:"path"`
	NoteID string `yaml:"note_id" json:"noteId"`
	Title  string `yaml:"title" json:"title"`
}

// Manifest summarizes a finished export. It is also written to the sink as
// manifest.yaml.
type Manifest struct {
	UserID     string    `yaml:"user_id" json:"userId"`
	ExportedAt time.Time `yaml:"exported_at" json:"exportedAt"`
	Folders    int       `yaml:"folders" json:"folders"`
	Files      []File    `yaml:"files" json:"files"`
	Location   string    `yaml:"-" json:"location"`
}

type frontmatter struct {
	ID      string    `yaml:"id"`
	Title   string    `yaml:"title"`
	Folder  string    `yaml:"folder"`
	Created time.Time `yaml:"created"`
	Updated time.Time `yaml:"updated"`
}

// Exporter reads notebooks from the store.
type Exporter struct {
	store *db.Store
	now   func() time.Time
}

func New(store *db.Store) *Exporter {
	return &Exporter{store: store, now: time.Now}
}

// SetNow overrides the clock used for the export timestamp.
func (e *Exporter) SetNow(now func() time.Time) {
	e.now = now
}

// Export writes every note of userID to sink under <userID>/<timestamp>/.
// Each note is written once, under the folder it is stored in.
func (e *Exporter) Export(ctx context.Context, userID string, sink Sink) (*Manifest, error) {
	svc := notes.NewService(e.store, userID)
	folders, err := svc.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	initial := slices.IndexFunc(folders, func(f notes.Folder) bool { return f.IsInitial })
	if initial < 0 {
		return nil, errs.New(errs.Unauthenticated, "user not found")
	}
	all, err := svc.ListNotesByFolder(ctx, folders[initial].ID)
	if err != nil {
		return nil, err
	}

	exportedAt := e.now().UTC().Truncate(time.Second)
	prefix := userID + "/" + exportedAt.Format(timestampLayout)
	paths, names := folderPaths(folders)

	slices.SortFunc(all, func(a, b notes.Note) int {
		return cmp.Or(
			strings.Compare(paths[a.FolderID], paths[b.FolderID]),
			strings.Compare(a.Title, b.Title),
			strings.Compare(a.ID, b.ID),
		)
	})

	m := &Manifest{
		UserID:     userID,
		ExportedAt: exportedAt,
		Folders:    len(folders),
		Files:      make([]File, 0, len(all)),
		Location:   sink.Location(prefix),
	}
	for _, n := range all {
		dir, ok := paths[n.FolderID]
		if !ok {
			return nil, fmt.Errorf("note %s references unknown folder %s", n.ID, n.FolderID)
		}
		rel := dir + "/" + Slug(n.Title) + "-" + shortID(n.ID) + ".md"
		body, err := renderNote(n, names[n.FolderID])
		if err != nil {
			return nil, err
		}
		if err := sink.Put(ctx, prefix+"/"+rel, body, markdownContentType); err != nil {
			return nil, fmt.Errorf("export note %s: %w", n.ID, err)
		}
		m.Files = append(m.Files, File{Path: rel, NoteID: n.ID, Title: n.Title})
	}

	manifest, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := sink.Put(ctx, prefix+"/"+ManifestName, manifest, yamlContentType); err != nil {
		return nil, fmt.Errorf("export manifest: %w", err)
	}

	obs.From(ctx).Info("notes_exported",
		"pkg", "export",
		"files", len(m.Files),
		"folders", m.Folders,
		"location", m.Location,
	)
	return m, nil
}

func renderNote(n notes.Note, folder string) ([]byte, error) {
	meta, err := yaml.Marshal(frontmatter{
		ID:      n.ID,
		Title:   n.Title,
		Folder:  folder,
		Created: n.CreatedAt,
		Updated: n.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter for %s: %w", n.ID, err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n")
	buf.WriteString(n.Content)
	if !strings.HasSuffix(n.Content, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// folderPaths maps every folder id to its slash-separated slug path and to
// its human-readable name path. Siblings whose slugs collide get the folder
// id appended.
func folderPaths(folders []notes.Folder) (paths, names map[string]string) {
	children := map[string][]notes.Folder{}
	for _, f := range folders {
		parent := ""
		if f.ParentID != nil {
			parent = *f.ParentID
		}
		children[parent] = append(children[parent], f)
	}

	paths = make(map[string]string, len(folders))
	names = make(map[string]string, len(folders))

	type frame struct {
		parentID   string
		parentPath string
		parentName string
	}
	stack := []frame{{}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		siblings := children[top.parentID]
		slices.SortFunc(siblings, func(a, b notes.Folder) int {
			return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
		})
		used := map[string]bool{}
		for _, f := range siblings {
			if _, seen := paths[f.ID]; seen {
				continue
			}
			seg := Slug(f.Name)
			if used[seg] {
				seg += "-" + shortID(f.ID)
			}
			used[seg] = true

			p, name := seg, f.Name
			if top.parentPath != "" {
				p = top.parentPath + "/" + seg
				name = top.parentName + "/" + f.Name
			}
			paths[f.ID] = p
			names[f.ID] = name
			stack = append(stack, frame{parentID: f.ID, parentPath: p, parentName: name})
		}
	}
	return paths, names
}
