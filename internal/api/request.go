package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jinwoo-notes/jinwoo/internal/errs"
)

const maxBodyBytes = 2 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateFolderRequest is the body of POST /api/folders.
type CreateFolderRequest struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *string `json:"parentId"`
	Depth    *int    `json:"depth" validate:"omitempty,gte=0"`
}

// UpdateFolderRequest is the body of PATCH /api/folders/{id}.
type UpdateFolderRequest struct {
	Name *string `json:"name"`
}

// MoveFolderRequest is the body of POST /api/folders/{id}/move. A null or
// empty parentId moves the folder to the top level.
type MoveFolderRequest struct {
	ParentID *string `json:"parentId"`
}

// CreateNoteRequest is the body of POST /api/notes.
type CreateNoteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	FolderID string `json:"folderId" validate:"required"`
}

// UpdateNoteRequest is the body of PATCH /api/notes/{id}.
type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// ExportRequest is the body of POST /api/export.
type ExportRequest struct {
	Sink string `json:"sink" validate:"required,oneof=local s3 webdav"`
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.New(errs.InvalidArgument, "request body too large")
		}
		return errs.New(errs.InvalidArgument, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.Wrap(errs.InvalidArgument, "invalid request body", err)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return errs.Newf(errs.InvalidArgument, "%s is required", fe.Field())
	case "oneof":
		return errs.Newf(errs.InvalidArgument, "%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return errs.New(errs.InvalidArgument, fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

// optionalID treats an empty string like an absent id.
func optionalID(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}
