package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/photo-quality/adapters/storage"
	"github.com/Skryldev/photo-quality/core"
	apperrors "github.com/Skryldev/photo-quality/errors"
)

// ── Local ─────────────────────────────────────────────────────────────────────

func TestLocal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := storage.NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	key := core.StorageKey{Bucket: "accepted", Path: "img-1.jpg"}
	require.NoError(t, l.Put(ctx, key, strings.NewReader("pixels"), map[string]string{"overall_status": "PASS"}))

	ok, err := l.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := l.Get(ctx, key)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "pixels", string(body))

	meta, err := l.ReadMeta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "PASS", meta["overall_status"])

	require.NoError(t, l.Delete(ctx, key))
	ok, err = l.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = os.Stat(filepath.Join(l.Root(), "accepted", "img-1.jpg.meta.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocal_GetMissing(t *testing.T) {
	l, err := storage.NewLocal(t.TempDir(), 0o600)
	require.NoError(t, err)

	_, err = l.Get(context.Background(), core.StorageKey{Bucket: "rejected", Path: "nope.jpg"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, l.Delete(context.Background(), core.StorageKey{Bucket: "rejected", Path: "nope.jpg"}))
}

func TestLocal_PathsStayUnderRoot(t *testing.T) {
	root := t.TempDir()
	l, err := storage.NewLocal(filepath.Join(root, "store"), 0)
	require.NoError(t, err)

	key := core.StorageKey{Bucket: "../../escape", Path: "../x.jpg"}
	require.NoError(t, l.Put(context.Background(), key, strings.NewReader("x"), nil))

	_, err = os.Stat(filepath.Join(l.Root(), "escape", "x.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape"))
	assert.True(t, os.IsNotExist(err))
}

// ── S3 ────────────────────────────────────────────────────────────────────────

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
	failPut error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, bucket, key string, body io.Reader, meta map[string]string) error {
	if f.failPut != nil {
		return f.failPut
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = data
	f.meta[bucket+"/"+key] = meta
	return nil
}

func (f *fakeS3) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeS3) DeleteObject(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeS3) HeadObject(_ context.Context, bucket, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[bucket+"/"+key]
	return ok, nil
}

func TestS3_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	s, err := storage.NewS3(client, "photos")
	require.NoError(t, err)

	key := core.StorageKey{Bucket: "rejected", Path: "img-2.png"}
	require.NoError(t, s.Put(ctx, key, strings.NewReader("data"), map[string]string{"image_id": "img-2"}))
	assert.Contains(t, client.objects, "photos/rejected/img-2.png")
	assert.Equal(t, "img-2", client.meta["photos/rejected/img-2.png"]["image_id"])

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "data", string(body))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.False(t, apperrors.IsRetryable(err))
}

func TestS3_FailuresAreTransient(t *testing.T) {
	client := newFakeS3()
	client.failPut = errors.New("connection reset")
	s, err := storage.NewS3(client, "photos")
	require.NoError(t, err)

	err = s.Put(context.Background(), core.StorageKey{Path: "a"}, strings.NewReader("x"), nil)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestNewS3_RequiresClient(t *testing.T) {
	_, err := storage.NewS3(nil, "photos")
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}
