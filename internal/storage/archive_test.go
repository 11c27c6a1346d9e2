package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) Upload(_ context.Context, key string, r io.Reader, size int64, ct string) error {
	if m.failPut {
		return errors.New("put denied")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return errors.New("size mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = ct
	return nil
}

func (m *memoryStorage) Ping(context.Context) error { return nil }

func TestContentArchiveRoundTrip(t *testing.T) {
	store := newMemoryStorage()
	archive := NewContentArchive(store, "/harvest/runs/")

	key, err := archive.Save(context.Background(), 42, "Solar panels für alle")
	require.NoError(t, err)
	assert.Equal(t, "harvest/runs/42/content.txt", key)
	assert.Equal(t, contentType, store.types[key])

	assert.Equal(t, "Solar panels für alle", string(store.objects[key]))
}

func TestContentArchiveDefaultPrefix(t *testing.T) {
	archive := NewContentArchive(newMemoryStorage(), "")
	assert.Equal(t, "runs/7/content.txt", archive.Key(7))
}

func TestContentArchiveUploadError(t *testing.T) {
	store := newMemoryStorage()
	store.failPut = true

	_, err := NewContentArchive(store, "runs").Save(context.Background(), 1, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive run 1")
}

func TestDetectStorageType(t *testing.T) {
	assert.Equal(t, StorageTypeR2, detectStorageType("https://abc.r2.cloudflarestorage.com"))
	assert.Equal(t, StorageTypeS3, detectStorageType("s3.us-east-1.amazonaws.com"))
	assert.Equal(t, StorageTypeS3Compatible, detectStorageType("localhost:9000"))
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "localhost:9000", normalizeEndpoint("http://localhost:9000/bucket/x"))
	assert.Equal(t, "s3.amazonaws.com", normalizeEndpoint("https://s3.amazonaws.com"))
}
