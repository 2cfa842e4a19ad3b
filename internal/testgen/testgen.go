// Package testgen provides utilities for generating comic archive fixtures
// with configurable pages for testing the scanner and inspector.
package testgen

import (
	"os"
	"path/filepath"
	"testing"
)

// CBZOptions configures the generated CBZ file.
type CBZOptions struct {
	PageCount   int      // defaults to 3
	PageNames   []string // overrides PageCount when set
	ImageFormat string   // "png" or "jpeg", defaults to "png"
	ExtraFiles  []string // non-image entries to include
	Width       int      // page width in pixels, defaults to 32
	Height      int      // page height in pixels, defaults to 48
}

// TempDir creates a temporary directory for testing and registers cleanup.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// TempLibraryDir creates a temporary library root for testing.
func TempLibraryDir(t *testing.T) string {
	t.Helper()
	return TempDir(t, "testgen-library-*")
}

// CreateSubDir creates a subdirectory within the given parent directory.
func CreateSubDir(t *testing.T, parent string, parts ...string) string {
	t.Helper()
	dir := filepath.Join(append([]string{parent}, parts...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create subdirectory %s: %v", dir, err)
	}
	return dir
}

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// StringPtr is a helper to create a pointer to a string.
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr is a helper to create a pointer to a float64.
func Float64Ptr(f float64) *float64 {
	return &f
}
