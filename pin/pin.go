// Package pin uploads documents to a content-addressed pinning service
// and returns their content identifiers.
package pin

import (
	"context"
	"fmt"

	"github.com/venu630/bequest"
)

// Document is a file to pin.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Ref identifies pinned content.
type Ref struct {
	CID  string `json:"cid"`
	Size int64  `json:"size"`
}

// Pinner uploads documents.
type Pinner interface {
	Pin(ctx context.Context, doc Document) (Ref, error)
}

// UploadError is returned when a document could not be pinned.
type UploadError struct {
	Name   string
	Status int
	Err    error
}

func (e *UploadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("bequest: pin %q failed with status %d: %v", e.Name, e.Status, e.Err)
	}
	return fmt.Sprintf("bequest: pin %q failed: %v", e.Name, e.Err)
}

// Unwrap exposes the upload sentinel and the underlying cause.
func (e *UploadError) Unwrap() []error {
	return []error{bequest.ErrUpload, e.Err}
}
