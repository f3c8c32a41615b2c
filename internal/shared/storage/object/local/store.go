package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certify-backend/internal/shared/storage/object"
	"certify-backend/internal/shared/util"
)

var errInvalidKey = errors.New("invalid storage key")

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Put writes the reader to disk under the owner's namespace with a random prefix.
// The file is written to a temporary name and renamed into place once complete.
func (s *Store) Put(ctx context.Context, ownerID, fileName, contentType string, r io.Reader) (object.PutResult, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return object.PutResult{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return object.PutResult{}, err
	}

	contentType, body, err := object.SniffContentType(contentType, r)
	if err != nil {
		return object.PutResult{}, fmt.Errorf("read sniff: %w", err)
	}

	ownerKey := util.OwnerKey(ownerID)
	dirPath := filepath.Join(s.baseDir, ownerKey)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return object.PutResult{}, fmt.Errorf("mkdir: %w", err)
	}

	finalName := fmt.Sprintf("%s_%s", randomID(), sanitizedName)
	tmp, err := os.CreateTemp(dirPath, ".upload-*")
	if err != nil {
		return object.PutResult{}, fmt.Errorf("open file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return object.PutResult{}, fmt.Errorf("write body: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dirPath, finalName)); err != nil {
		return object.PutResult{}, fmt.Errorf("commit file: %w", err)
	}

	return object.PutResult{
		Handle:      filepath.ToSlash(filepath.Join(ownerKey, finalName)),
		SizeBytes:   written,
		ContentType: contentType,
	}, nil
}

// Get opens a stored object for reading. A handle outside the base directory is
// reported as absent and never touches the filesystem.
func (s *Store) Get(ctx context.Context, handle string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(handle)
	if err != nil {
		return nil, object.ErrNotFound
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a stored object. Missing files and handles that cannot name a
// file under the base directory are ignored.
func (s *Store) Delete(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(handle)
	if err != nil {
		return nil
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *Store) resolve(handle string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(handle))
	if handle == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errInvalidKey
	}
	return filepath.Join(s.baseDir, clean), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ object.ObjectStore = (*Store)(nil)
