// Package upload validates course media before it reaches object storage.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// sniffLen is how much of a file is read to detect its real type
const sniffLen = 3072

// allowed maps each media kind to its accepted extensions and, per
// extension, the detected content types that may back it
var allowed = map[models.MediaKind]map[string][]string{
	models.MediaKindVideo: {
		".mp4": {"video/mp4"},
		".mov": {"video/quicktime", "video/mp4"},
		".avi": {"video/x-msvideo"},
	},
	models.MediaKindContent: {
		".pdf":  {"application/pdf"},
		".doc":  {"application/msword", "application/x-ole-storage"},
		".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	},
	models.MediaKindThumbnail: {
		".jpg":  {"image/jpeg"},
		".jpeg": {"image/jpeg"},
		".png":  {"image/png"},
		".webp": {"image/webp"},
	},
}

// File is an upload that passed validation
type File struct {
	Kind        models.MediaKind
	Filename    string
	Ext         string
	ContentType string
	Size        int64
	// Reader yields the complete file content, including the sniffed prefix
	Reader io.Reader
}

// Validator checks kind, extension, size and sniffed content type
type Validator struct {
	maxSize int64
}

// NewValidator creates a validator rejecting files larger than maxSize bytes
func NewValidator(maxSize int64) *Validator {
	return &Validator{maxSize: maxSize}
}

// Inspect validates an incoming file. Every rejection wraps
// models.ErrInvalidInput.
func (v *Validator) Inspect(kind models.MediaKind, filename string, size int64, r io.Reader) (*File, error) {
	exts, ok := allowed[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown media kind %q", models.ErrInvalidInput, kind)
	}

	ext := strings.ToLower(path.Ext(filename))
	accepted, ok := exts[ext]
	if !ok {
		return nil, fmt.Errorf("%w: file type %q not allowed for %s", models.ErrInvalidInput, ext, kind)
	}

	if size <= 0 {
		return nil, fmt.Errorf("%w: empty file", models.ErrInvalidInput)
	}
	if size > v.maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidInput, v.maxSize)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !matches(detected, accepted) {
		return nil, fmt.Errorf("%w: content %s does not match %s", models.ErrInvalidInput, detected.String(), ext)
	}

	return &File{
		Kind:        kind,
		Filename:    filename,
		Ext:         ext,
		ContentType: accepted[0],
		Size:        size,
		Reader:      io.MultiReader(bytes.NewReader(head), r),
	}, nil
}

func matches(detected *mimetype.MIME, accepted []string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range accepted {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}
