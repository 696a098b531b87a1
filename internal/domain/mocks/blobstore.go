package mocks

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ersonp/roots-core/internal/domain/ports"
)

// BlobStore keeps blobs in memory.
type BlobStore struct {
	Blobs  map[string][]byte
	PutErr error
}

// NewBlobStore creates an empty blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{Blobs: make(map[string][]byte)}
}

// Put stores the body.
func (m *BlobStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if m.PutErr != nil {
		return "", m.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.Blobs[key] = data
	return "mem://" + key, nil
}

// Open returns the stored body.
func (m *BlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.Blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, ports.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the body.
func (m *BlobStore) Delete(_ context.Context, key string) error {
	delete(m.Blobs, key)
	return nil
}
