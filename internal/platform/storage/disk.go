// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// DiskStorage stores media on the local filesystem. Intended for
// development and tests; production serves media from S3.
type DiskStorage struct {
	root string
}

// NewDisk creates a disk-backed storage rooted at the given directory,
// creating it if necessary.
func NewDisk(root string) (*DiskStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage_disk_mkdir_failed: %w", err)
	}
	return &DiskStorage{root: root}, nil
}

// Put stores the content under the given key.
func (s *DiskStorage) Put(_ context.Context, key string, content io.Reader, _ string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage_disk_mkdir_failed: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage_disk_create_failed: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, content); err != nil {
		return fmt.Errorf("storage_disk_write_failed: %w", err)
	}

	return nil
}

// Open returns a reader for the object. The content type is inferred
// from the key's extension.
func (s *DiskStorage) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("storage_disk_open_failed: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return file, contentType, nil
}

// Delete removes the object; a missing key is not an error.
func (s *DiskStorage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage_disk_delete_failed: %w", err)
	}

	return nil
}

// resolve maps a key to a path under the root, rejecting traversal.
func (s *DiskStorage) resolve(key string) (string, error) {
	cleaned := filepath.Clean("/" + key)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage_disk_invalid_key: %q", key)
	}
	return filepath.Join(s.root, cleaned), nil
}
