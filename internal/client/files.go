package client

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const partialSuffix = ".part"

// FileStore writes downloads into a local directory.
type FileStore struct {
	basePath string
}

// NewFileStore creates a store rooted at basePath.
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// Save streams data into name. Bytes land in a .part file that is renamed
// only after the copy succeeds, so an interrupted download never leaves a
// file that looks complete.
func (fs *FileStore) Save(name string, data io.Reader) (string, int64, error) {
	finalPath := fs.filePath(name)
	partPath := finalPath + partialSuffix

	file, err := os.Create(partPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file %s: %w", partPath, err)
	}

	n, err := io.Copy(file, data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// Clean up partial file on error
		os.Remove(partPath)
		return "", n, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		os.Remove(partPath)
		return "", n, fmt.Errorf("failed to finalize %s: %w", finalPath, err)
	}

	return finalPath, n, nil
}

// filePath keeps name inside basePath whatever the server sent.
func (fs *FileStore) filePath(name string) string {
	return filepath.Join(fs.basePath, filepath.Base(filepath.Clean("/"+name)))
}
