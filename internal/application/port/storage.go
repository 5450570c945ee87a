package port

import (
	"context"
	"io"

	"github.com/garyjia/trip-approval/internal/domain/entity"
)

// AttachmentStorage stores uploaded document blobs
type AttachmentStorage interface {
	// Save writes the blob and returns its metadata with a download URL
	Save(ctx context.Context, requestID int64, docType entity.DocumentType, fileName string, content io.Reader) (*entity.FileAttachment, error)

	// Open returns a reader for a stored blob key
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a stored blob; missing blobs are not an error
	Delete(ctx context.Context, key string) error

	// KeyFromURL maps a download URL produced by Save back to its key
	KeyFromURL(url string) string
}
