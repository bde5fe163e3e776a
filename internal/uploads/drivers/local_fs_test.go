package drivers

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func newTestDriver(t *testing.T) (*LocalFSDriver, string) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "localfs-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	driver, err := NewLocalFSDriver(tempDir, "/uploads", "/api/objects", "test-signing-secret")
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}
	return driver, tempDir
}

func TestLocalFSDriver_DirectoryHashing(t *testing.T) {
	driver, tempDir := newTestDriver(t)

	ctx := context.Background()
	key := "abcdef123456.pdf"
	content := []byte("test content")

	// Test Save
	err := driver.Save(ctx, key, bytes.NewReader(content), "application/pdf")
	if err != nil {
		t.Errorf("Save failed: %v", err)
	}

	// Verify Hashing: key "abcdef123456.pdf" should be at ab/cd/abcdef123456.pdf
	expectedSubPath := filepath.Join("ab", "cd", key)
	fullPath := filepath.Join(tempDir, expectedSubPath)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		t.Errorf("file not found at hashed path: %s", fullPath)
	}

	// Test Get
	reader, contentType, err := driver.Get(ctx, key)
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	defer reader.Close()

	if contentType != "application/pdf" {
		t.Errorf("expected content type application/pdf, got %s", contentType)
	}

	// Verify URL
	u, err := driver.GenerateURL(ctx, key, 0)
	if err != nil {
		t.Errorf("GenerateURL failed: %v", err)
	}
	if !strings.HasSuffix(u, key) || !strings.Contains(u, "/uploads") {
		t.Errorf("unexpected URL: %s", u)
	}

	// Test Delete
	err = driver.Delete(ctx, key)
	if err != nil {
		t.Errorf("Delete failed: %v", err)
	}

	if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
		t.Error("file still exists after deletion")
	}
}

func TestLocalFSDriver_RejectsEscapingKeys(t *testing.T) {
	driver, tempDir := newTestDriver(t)
	ctx := context.Background()

	keys := []string{
		"",
		"../escape.txt",
		"../../../escaped.txt",
		"a/b.txt",
		`a\b.txt`,
		"..",
		"ab..cd.txt",
	}
	for _, key := range keys {
		if err := driver.Save(ctx, key, strings.NewReader("x"), "text/plain"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Save(%q): expected ErrInvalidKey, got %v", key, err)
		}
		if _, _, err := driver.Get(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Get(%q): expected ErrInvalidKey, got %v", key, err)
		}
		if err := driver.Delete(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Delete(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}

	// Nothing may land next to the storage root.
	parent := filepath.Dir(tempDir)
	if _, err := os.Stat(filepath.Join(parent, "escape.txt")); !os.IsNotExist(err) {
		t.Error("file written outside the storage root")
	}
}

func TestLocalFSDriver_SignedPutURL(t *testing.T) {
	driver, _ := newTestDriver(t)
	ctx := context.Background()
	key := "abcdef123456.pdf"

	putURL, err := driver.SignPutURL(ctx, key, "application/pdf", 10*time.Minute)
	if err != nil {
		t.Fatalf("SignPutURL failed: %v", err)
	}

	parsed, err := url.Parse(putURL)
	if err != nil {
		t.Fatalf("unparseable upload URL %q: %v", putURL, err)
	}
	if parsed.Path != "/api/objects/"+key {
		t.Errorf("unexpected upload path: %s", parsed.Path)
	}

	exp := parsed.Query().Get("exp")
	sig := parsed.Query().Get("sig")
	if exp == "" || sig == "" {
		t.Fatalf("upload URL missing token: %s", putURL)
	}

	if err := driver.VerifyPut(key, exp, sig); err != nil {
		t.Errorf("VerifyPut rejected its own token: %v", err)
	}

	// Tampered key or signature must not verify.
	if err := driver.VerifyPut("other-key.pdf", exp, sig); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature for foreign key, got %v", err)
	}
	if err := driver.VerifyPut(key, exp, "deadbeef"); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature for forged signature, got %v", err)
	}
	if err := driver.VerifyPut(key, "not-a-number", sig); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature for mangled expiry, got %v", err)
	}
}

func TestLocalFSDriver_ExpiredPutURL(t *testing.T) {
	driver, _ := newTestDriver(t)
	key := "abcdef123456.pdf"

	exp := time.Now().Add(-time.Minute).Unix()
	sig := driver.signPut(key, exp)

	err := driver.VerifyPut(key, strconv.FormatInt(exp, 10), sig)
	if !errors.Is(err, ErrExpiredURL) {
		t.Errorf("expected ErrExpiredURL, got %v", err)
	}
}
