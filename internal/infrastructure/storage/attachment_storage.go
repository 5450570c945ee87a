package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// LocalAttachmentStorage implements port.AttachmentStorage on the local filesystem.
// Blobs live under <baseDir>/<requestID>/<docType>/<uid>_<name>; the key is the
// part after baseDir and the URL is urlPrefix + key.
type LocalAttachmentStorage struct {
	baseDir   string
	urlPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

// NewLocalAttachmentStorage creates a new LocalAttachmentStorage
func NewLocalAttachmentStorage(baseDir, urlPrefix string, logger *zap.Logger) *LocalAttachmentStorage {
	return &LocalAttachmentStorage{
		baseDir:   baseDir,
		urlPrefix: urlPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

// Save writes content and returns the attachment metadata
func (s *LocalAttachmentStorage) Save(ctx context.Context, requestID int64, docType entity.DocumentType, fileName string, content io.Reader) (*entity.FileAttachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !docType.IsValid() {
		return nil, fmt.Errorf("unknown document type %q: %w", docType, entity.ErrValidation)
	}

	name := SanitizeName(fileName)
	key := path.Join(strconv.FormatInt(requestID, 10), string(docType), uuid.NewString()[:8]+"_"+name)
	fullPath := s.GetFullPath(key)

	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		s.logger.Error("Failed to create file", zap.String("path", fullPath), zap.Error(err))
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, copyErr := io.Copy(f, content)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(fullPath)
		err := copyErr
		if err == nil {
			err = closeErr
		}
		s.logger.Error("Failed to write file", zap.String("path", fullPath), zap.Error(err))
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Attachment saved",
		zap.Int64("request_id", requestID),
		zap.String("doc_type", string(docType)),
		zap.String("key", key),
		zap.Int64("size", size))

	return &entity.FileAttachment{
		Name:       name,
		URL:        s.urlPrefix + key,
		Size:       size,
		UploadedAt: s.now(),
	}, nil
}

// Open returns a reader for the blob stored under key
func (s *LocalAttachmentStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := s.GetFullPath(key)
	if err := s.validatePath(fullPath); err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("attachment %s: %w", key, entity.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Failed to open file", zap.String("path", fullPath), zap.Error(err))
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete removes the blob stored under key; a missing blob is not an error
func (s *LocalAttachmentStorage) Delete(ctx context.Context, key string) error {
	fullPath := s.GetFullPath(key)
	if err := s.validatePath(fullPath); err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// KeyFromURL strips the URL prefix, returning the storage key
func (s *LocalAttachmentStorage) KeyFromURL(url string) string {
	return strings.TrimPrefix(url, s.urlPrefix)
}

// GetFullPath converts a key to a path under baseDir
func (s *LocalAttachmentStorage) GetFullPath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

// validatePath checks that the path stays strictly inside baseDir
func (s *LocalAttachmentStorage) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s: %w", fullPath, entity.ErrValidation)
	}
	return nil
}

// SanitizeName returns a filesystem-safe file name.
// Path separators and parent references are dropped; the extension is kept.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = unsafeNameChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "file"
	}
	return name
}

// Verify interface compliance
var _ port.AttachmentStorage = (*LocalAttachmentStorage)(nil)
