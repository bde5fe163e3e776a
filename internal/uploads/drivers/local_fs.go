package drivers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidKey is returned for keys that would resolve outside the
	// storage root.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrBadSignature is returned when an upload token does not match.
	ErrBadSignature = errors.New("upload signature mismatch")
	// ErrExpiredURL is returned when an upload token is past its expiry.
	ErrExpiredURL = errors.New("upload URL expired")
)

// LocalFSDriver implements StorageDriver for local disk with directory hashing
type LocalFSDriver struct {
	BaseDir   string
	PublicURL string
	UploadURL string
	secret    []byte
}

// NewLocalFSDriver creates a new LocalFSDriver.
// baseDir is where files will be stored.
// publicURL is the base URL used to generate public links (e.g., /api/objects).
// uploadURL is the base URL clients PUT raw bytes to (local substitute for
// presigning); signingSecret keys the HMAC on those upload URLs.
func NewLocalFSDriver(baseDir, publicURL, uploadURL, signingSecret string) (*LocalFSDriver, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalFSDriver{
		BaseDir:   baseDir,
		PublicURL: publicURL,
		UploadURL: uploadURL,
		secret:    []byte(signingSecret),
	}, nil
}

// resolve maps a key to its on-disk path, refusing anything that would land
// outside BaseDir. Keys never contain separators or dot segments.
func (d *LocalFSDriver) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}

	fullPath := filepath.Join(d.BaseDir, d.getHashedPath(key))

	base, err := filepath.Abs(d.BaseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		return "", ErrInvalidKey
	}
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return fullPath, nil
}

// getHashedPath generates a two-level deep path for a key to avoid flat directory issues.
func (d *LocalFSDriver) getHashedPath(key string) string {
	if len(key) < 4 {
		return key
	}
	return filepath.Join(key[0:2], key[2:4], key)
}

func (d *LocalFSDriver) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	fullPath, err := d.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create hashed directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(fullPath)
		return fmt.Errorf("failed to save file content: %w", err)
	}

	// Save metadata sidecar
	metaPath := fullPath + ".meta"
	if err := os.WriteFile(metaPath, []byte(contentType), 0644); err != nil {
		// Try to cleanup content file if metadata save fails
		os.Remove(fullPath)
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	return nil
}

func (d *LocalFSDriver) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	fullPath, err := d.resolve(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, "", err
	}

	// Try to read metadata sidecar
	metaPath := fullPath + ".meta"
	contentType := "application/octet-stream"
	if metaBytes, err := os.ReadFile(metaPath); err == nil {
		contentType = string(metaBytes)
	}

	return f, contentType, nil
}

func (d *LocalFSDriver) Delete(ctx context.Context, key string) error {
	fullPath, err := d.resolve(key)
	if err != nil {
		return err
	}
	os.Remove(fullPath + ".meta") // Ignore error if meta doesn't exist
	err = os.Remove(fullPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (d *LocalFSDriver) GenerateURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	// For local storage, we return a URL relative to our API.
	// The object router handles GET {PublicURL}/{key}.
	if d.PublicURL == "" {
		return key, nil
	}
	return fmt.Sprintf("%s/%s", d.PublicURL, key), nil
}

// SignPutURL has no native presigning on local disk; the returned URL points
// at the server's own direct-upload endpoint, carrying an HMAC token over the
// key and expiry so the endpoint only accepts uploads it handed out itself.
func (d *LocalFSDriver) SignPutURL(ctx context.Context, key string, contentType string, expires time.Duration) (string, error) {
	if _, err := d.resolve(key); err != nil {
		return "", err
	}
	if expires <= 0 {
		expires = 15 * time.Minute
	}

	base := d.UploadURL
	if base == "" {
		base = d.PublicURL
	}

	exp := time.Now().Add(expires).Unix()
	return fmt.Sprintf("%s/%s?exp=%d&sig=%s", base, key, exp, d.signPut(key, exp)), nil
}

// VerifyPut checks the exp/sig pair handed out by SignPutURL.
func (d *LocalFSDriver) VerifyPut(key, expStr, sig string) error {
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return ErrBadSignature
	}

	expected, err := hex.DecodeString(sig)
	if err != nil {
		return ErrBadSignature
	}
	actual, err := hex.DecodeString(d.signPut(key, exp))
	if err != nil {
		return ErrBadSignature
	}
	if !hmac.Equal(expected, actual) {
		return ErrBadSignature
	}

	if time.Now().Unix() > exp {
		return ErrExpiredURL
	}
	return nil
}

func (d *LocalFSDriver) signPut(key string, exp int64) string {
	mac := hmac.New(sha256.New, d.secret)
	fmt.Fprintf(mac, "%s\n%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
