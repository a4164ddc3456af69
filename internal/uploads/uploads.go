// Package uploads stores report photos on local disk under content-addressed
// names.
package uploads

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/rajasatyajit/lifesaver/internal/errors"
	"golang.org/x/crypto/blake2b"
)

// URLPrefix is the path photos are served under
const URLPrefix = "/uploads/"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
	".heif": true,
}

// Store writes uploads into a single directory
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates dir if needed
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the storage directory
func (s *Store) Dir() string { return s.dir }

// Save copies r to disk and returns the stored file name: the hex BLAKE2b-128
// digest of the content plus the original extension when it is an image
// extension. Identical content always maps to the same name.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h, err := blake2b.New(16, nil)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("init hash: %w", err)
	}

	// One extra byte tells an exact-limit upload apart from an oversized one
	n, err := io.Copy(io.MultiWriter(tmp, h), io.LimitReader(r, s.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > s.maxBytes {
		return "", fmt.Errorf("upload exceeds %d bytes: %w", s.maxBytes, apperrors.ErrPayloadTooLarge)
	}

	name := hex.EncodeToString(h.Sum(nil)) + extension(originalName)
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return name, nil
}

func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if imageExtensions[ext] {
		return ext
	}
	return ""
}

// PublicURL joins a base URL such as "https://host" with the served path
func PublicURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + URLPrefix + name
}
