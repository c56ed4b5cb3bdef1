package notes

import (
	"strings"
	"unicode/utf8"

	"github.com/jinwoo-notes/jinwoo/internal/errs"
)

const (
	// MaxTitleLength is the maximum note title length in characters.
	MaxTitleLength = 500

	// MaxContentBytes is the maximum note content size (1 MiB).
	MaxContentBytes = 1 << 20

	// MaxFolderNameLength is the maximum folder name length in characters.
	MaxFolderNameLength = 255

	// MaxFolderDepth is the deepest allowed folder level (root folders are depth 0).
	MaxFolderDepth = 32
)

func validateTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return errs.Newf(errs.InvalidArgument, "title must be at most %d characters", MaxTitleLength)
	}
	if !utf8.ValidString(title) {
		return errs.New(errs.InvalidArgument, "title must be valid UTF-8")
	}
	return nil
}

func validateContent(content string) error {
	if len(content) > MaxContentBytes {
		return errs.Newf(errs.InvalidArgument, "content must be at most %d bytes", MaxContentBytes)
	}
	if !utf8.ValidString(content) {
		return errs.New(errs.InvalidArgument, "content must be valid UTF-8")
	}
	return nil
}

// normalizeFolderName trims the name and checks it is usable.
func normalizeFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.New(errs.InvalidArgument, "folder name is required")
	}
	if utf8.RuneCountInString(name) > MaxFolderNameLength {
		return "", errs.Newf(errs.InvalidArgument, "folder name must be at most %d characters", MaxFolderNameLength)
	}
	return name, nil
}

func validateDepth(depth int64) error {
	if depth > MaxFolderDepth {
		return errs.Newf(errs.InvalidArgument, "folders cannot be nested deeper than %d levels", MaxFolderDepth)
	}
	return nil
}
