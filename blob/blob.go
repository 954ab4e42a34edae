package blob

import (
	"context"
	"io"
)

// Uploader stores media files and serves them back by public URL. The
// account service only needs to put objects, derive their URL and delete
// orphans; everything else about the media pipeline lives elsewhere.
type Uploader interface {
	// Upload stores the content and returns its public URL together with
	// the storage key needed to delete it again.
	Upload(ctx context.Context, r io.Reader, size int64, contentType, filename string) (url string, key string, err error)
	// Delete removes a previously uploaded object. Best effort cleanup of
	// orphaned assets.
	Delete(ctx context.Context, key string) error
}
