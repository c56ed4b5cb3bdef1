package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/studio-b12/gowebdav"

	"github.com/jinwoo-notes/jinwoo/internal/s3client"
)

// Sink is a destination for exported files. Paths are slash-separated and
// relative to the sink's root.
type Sink interface {
	Put(ctx context.Context, path string, body []byte, contentType string) error
	// Location describes where files under prefix end up, for display.
	Location(prefix string) string
}

// LocalSink writes into a directory on an afero filesystem.
type LocalSink struct {
	fs   afero.Fs
	root string
}

// NewLocalSink returns a sink rooted at dir. Use afero.NewOsFs() in
// production and afero.NewMemMapFs() in tests.
func NewLocalSink(fs afero.Fs, dir string) *LocalSink {
	return &LocalSink{fs: fs, root: dir}
}

func (s *LocalSink) Put(ctx context.Context, p string, body []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(s.root, filepath.FromSlash(p))
	if err := s.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", p, err)
	}
	if err := afero.WriteFile(s.fs, full, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

func (s *LocalSink) Location(prefix string) string {
	return filepath.Join(s.root, filepath.FromSlash(prefix))
}

// S3Sink writes objects under a key prefix in the client's bucket.
type S3Sink struct {
	client    *s3client.Client
	keyPrefix string
}

// DefaultS3Prefix is the key prefix every S3 export is written under.
const DefaultS3Prefix = "exports"

func NewS3Sink(client *s3client.Client, keyPrefix string) *S3Sink {
	return &S3Sink{client: client, keyPrefix: strings.Trim(keyPrefix, "/")}
}

func (s *S3Sink) key(p string) string {
	if s.keyPrefix == "" {
		return p
	}
	return s.keyPrefix + "/" + p
}

func (s *S3Sink) Put(ctx context.Context, p string, body []byte, contentType string) error {
	return s.client.PutObject(ctx, s.key(p), body, contentType)
}

func (s *S3Sink) Location(prefix string) string {
	return fmt.Sprintf("s3://%s/%s/", s.client.BucketName(), s.key(prefix))
}

// WebDAVSink uploads files to a WebDAV server.
type WebDAVSink struct {
	client *gowebdav.Client
	url    string
	made   map[string]bool
}

func NewWebDAVSink(url, user, password string) *WebDAVSink {
	return &WebDAVSink{
		client: gowebdav.NewClient(url, user, password),
		url:    strings.TrimRight(url, "/"),
		made:   map[string]bool{},
	}
}

func (s *WebDAVSink) Put(ctx context.Context, p string, body []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := path.Dir("/" + p)
	if !s.made[dir] {
		if err := s.client.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("webdav mkdir %s: %w", dir, err)
		}
		s.made[dir] = true
	}
	if err := s.client.Write("/"+p, body, 0o644); err != nil {
		return fmt.Errorf("webdav upload %s: %w", p, err)
	}
	return nil
}

func (s *WebDAVSink) Location(prefix string) string {
	return s.url + "/" + prefix + "/"
}
