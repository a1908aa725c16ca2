package media

import (
	"context"
	"io"
)

// Content types accepted for profile pictures and post images.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// AllowedContentType reports whether the upload may proceed. Checked before
// any network call.
func AllowedContentType(ct string) bool {
	return ct == ContentTypeJPEG || ct == ContentTypePNG
}

// Service uploads images to remote object storage and returns a public URL.
type Service interface {
	UploadImage(ctx context.Context, kind string, body io.Reader, contentType string) (string, error)
}
