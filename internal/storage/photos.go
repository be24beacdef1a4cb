package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// allowed photo extensions, lowercase
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// PhotoStore persists uploaded report photos on local disk and hands back
// the stored-file references the report lifecycle records.
type PhotoStore struct {
	dir string
}

// NewPhotoStore creates the upload directory if needed.
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Allowed reports whether the filename carries a supported photo extension.
func (ps *PhotoStore) Allowed(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Save writes one photo to disk under a name namespaced by the caller's
// prefix and returns its serving reference (/uploads/<name>).
func (ps *PhotoStore) Save(prefix, filename string, src io.Reader) (string, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("file extension %q not allowed", ext)
	}

	storedName := prefix + "_" + name

	dst, err := os.Create(filepath.Join(ps.dir, storedName))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return "/uploads/" + storedName, nil
}

// FilePath resolves a stored filename to its on-disk path, rejecting any
// traversal outside the upload directory.
func (ps *PhotoStore) FilePath(filename string) (string, error) {
	name := filepath.Base(filename)
	if name != filename || name == "." || name == ".." {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}

	path := filepath.Join(ps.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}

	return path, nil
}

// sanitizeFilename strips path components and characters unsafe for disk names
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	if name == "." || name == ".." {
		return ""
	}
	return name
}
