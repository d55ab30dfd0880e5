package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// WriteTemp writes data to a file named name in a fresh temporary directory
// and returns its path.
func WriteTemp(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// CopyToTemp copies src into a temporary directory under tempName and returns
// the new path. Calls t.Skip if src does not exist.
//
// Example:
//
//	path := testutil.CopyToTemp(t, "testdata/sample.rsrc", "sample.rsrc")
func CopyToTemp(t *testing.T, src, tempName string) string {
	t.Helper()

	dst := filepath.Join(t.TempDir(), tempName)
	copyFile(t, src, dst)
	return dst
}

// copyFile copies src to dst.
// Calls t.Fatal if the copy fails.
func copyFile(t *testing.T, src, dst string) {
	t.Helper()

	srcFile, err := os.Open(src)
	if err != nil {
		t.Skipf("Test file not found: %v", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer dstFile.Close()

	if _, copyErr := io.Copy(dstFile, srcFile); copyErr != nil {
		t.Fatalf("Failed to copy file: %v", copyErr)
	}
}
