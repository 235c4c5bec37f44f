package fixture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BlobStore holds uploaded image bytes on the local filesystem.
// Files are stored at <basePath>/<rowID>/original.
type BlobStore struct {
	basePath string
}

// NewBlobStore creates a BlobStore rooted at basePath.
func NewBlobStore(basePath string) *BlobStore {
	return &BlobStore{basePath: basePath}
}

func (bs *BlobStore) blobDir(rowID string) string {
	return filepath.Join(bs.basePath, rowID)
}

func (bs *BlobStore) blobPath(rowID string) string {
	return filepath.Join(bs.blobDir(rowID), "original")
}

// Store writes data to disk using atomic write (temp file + rename).
// It returns the number of bytes written.
func (bs *BlobStore) Store(rowID string, data io.Reader) (int64, error) {
	dir := bs.blobDir(rowID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Write to a temp file in the same directory for atomic rename.
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, data)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}

	dst := bs.blobPath(rowID)
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, fmt.Errorf("renaming temp file to %s: %w", dst, err)
	}

	// Rename succeeded; prevent deferred cleanup from removing the final file.
	tmpPath = ""

	return n, nil
}

// Retrieve opens the stored blob and returns an io.ReadCloser.
func (bs *BlobStore) Retrieve(rowID string) (io.ReadCloser, error) {
	path := bs.blobPath(rowID)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %s", rowID)
		}
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	return f, nil
}

// Delete removes the blob directory for a row. It is idempotent: deleting a
// non-existent blob returns no error.
func (bs *BlobStore) Delete(rowID string) error {
	dir := bs.blobDir(rowID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing directory %s: %w", dir, err)
	}
	return nil
}

// Exists checks whether a blob exists on disk for the row.
func (bs *BlobStore) Exists(rowID string) (bool, error) {
	path := bs.blobPath(rowID)
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking file %s: %w", path, err)
}
