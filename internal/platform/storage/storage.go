// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

/*
Package storage provides blob storage for article media uploads.

Two implementations are provided:

  - S3: Object storage through aws-sdk-go-v2, compatible with AWS S3 and
    MinIO-style endpoints (production).
  - Disk: A local filesystem directory (development and tests).

Handlers depend only on the Storage interface; object keys are opaque
strings chosen by the caller.
*/
package storage

import (
	"context"
	"io"
)

// Storage reads and writes media blobs by key.
type Storage interface {
	// Put stores the content under the given key, overwriting any
	// existing object.
	Put(ctx context.Context, key string, content io.Reader, contentType string) error

	// Open returns a reader for the object along with its content type.
	// The caller must close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
