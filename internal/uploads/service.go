package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidKey is returned for keys that do not match the shape this
	// service generates.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrDirectPutUnsupported is returned when the direct-upload endpoint is
	// hit while the storage backend presigns natively.
	ErrDirectPutUnsupported = errors.New("direct upload not supported by storage backend")
)

// Keys are always a UUID plus an optional sanitized extension; anything else
// never came from this service.
var objectKeyPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[0-9a-z]{1,12})?$`)

// ValidObjectKey reports whether key has the shape of a generated object key.
func ValidObjectKey(key string) bool {
	return objectKeyPattern.MatchString(key)
}

// safeExt returns the lowercased extension of filename, or empty when the
// extension contains anything beyond plain alphanumerics.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 13 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// directPutVerifier is implemented by backends whose upload URLs point back
// at this server instead of at native presigned storage.
type directPutVerifier interface {
	VerifyPut(key, exp, sig string) error
}

// UploadService coordinates file uploads and manages metadata
type UploadService struct {
	Driver    StorageDriver
	uploadTTL time.Duration
}

func NewUploadService(driver StorageDriver, uploadTTL time.Duration) *UploadService {
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}
	return &UploadService{Driver: driver, uploadTTL: uploadTTL}
}

// Upload handles the incoming file, saves it via driver, and returns metadata
func (s *UploadService) Upload(ctx context.Context, filename string, reader io.Reader, size int64, mime string) (*FileMetadata, error) {
	if mime == "" {
		mime = "application/octet-stream"
	}
	id := uuid.New()
	key := fmt.Sprintf("%s%s", id.String(), safeExt(filename))

	err := s.Driver.Save(ctx, key, reader, mime)
	if err != nil {
		return nil, fmt.Errorf("storage driver failed: %w", err)
	}

	url, err := s.Driver.GenerateURL(ctx, key, 0)
	if err != nil {
		if delErr := s.Driver.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to cleanup orphaned file", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to generate URL: %w", err)
	}

	metadata := &FileMetadata{
		ID:       id,
		Name:     filename,
		Key:      key,
		URL:      url,
		Size:     size,
		MimeType: mime,
	}

	slog.InfoContext(ctx, "file uploaded", "id", id, "key", key)
	return metadata, nil
}

// PresignUpload reserves a key and returns a URL the client can PUT the raw
// file bytes to. Phase one of the two-phase attachment flow; phase two is
// the client's direct upload.
func (s *UploadService) PresignUpload(ctx context.Context, req PresignRequest) (*PresignResponse, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s%s", uuid.New().String(), safeExt(req.Filename))

	uploadURL, err := s.Driver.SignPutURL(ctx, key, contentType, s.uploadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload URL: %w", err)
	}

	publicURL, err := s.Driver.GenerateURL(ctx, key, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to generate URL: %w", err)
	}

	slog.InfoContext(ctx, "upload URL signed", "key", key, "content_type", contentType)

	return &PresignResponse{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: publicURL,
		ExpiresIn: int(s.uploadTTL.Seconds()),
	}, nil
}

// Download retrieves the file content and its MIME type
func (s *UploadService) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !ValidObjectKey(key) {
		return nil, "", ErrInvalidKey
	}
	return s.Driver.Get(ctx, key)
}

// Delete removes a stored object.
func (s *UploadService) Delete(ctx context.Context, key string) error {
	if !ValidObjectKey(key) {
		return ErrInvalidKey
	}
	return s.Driver.Delete(ctx, key)
}

// Receive stores raw bytes PUT directly to the server. Phase two of the
// upload flow when the backend has no native presigning; the exp/sig pair
// must check out against the token issued by PresignUpload.
func (s *UploadService) Receive(ctx context.Context, key, exp, sig string, reader io.Reader, contentType string) error {
	if !ValidObjectKey(key) {
		return ErrInvalidKey
	}

	verifier, ok := s.Driver.(directPutVerifier)
	if !ok {
		return ErrDirectPutUnsupported
	}
	if err := verifier.VerifyPut(key, exp, sig); err != nil {
		return err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.Driver.Save(ctx, key, reader, contentType)
}
