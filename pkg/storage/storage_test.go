package storage

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	s, err := NewLocalStorage(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_SaveAndGet(t *testing.T) {
	s := newTestLocalStorage(t)

	info, err := s.Save(strings.NewReader("hello world"), "notes.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "notes.txt", info.Name)
	assert.Equal(t, int64(11), info.Size)
	assert.Equal(t, "text/plain; charset=utf-8", info.MimeType)

	reader, err := s.Get(info.ID)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestLocalStorage_ExistsAndDelete(t *testing.T) {
	s := newTestLocalStorage(t)

	info, err := s.Save(strings.NewReader("data"), "doc.pdf")
	require.NoError(t, err)

	exists, err := s.Exists(info.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(info.ID))

	exists, err = s.Exists(info.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Get(info.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorage_List(t *testing.T) {
	s := newTestLocalStorage(t)

	_, err := s.Save(strings.NewReader("a"), "a.txt")
	require.NoError(t, err)
	_, err = s.Save(strings.NewReader("b"), "b.txt")
	require.NoError(t, err)

	files, err := s.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestLocalStorage_SignedURL(t *testing.T) {
	s := newTestLocalStorage(t)

	info, err := s.Save(strings.NewReader("data"), "doc.pdf")
	require.NoError(t, err)

	url, err := s.SignedURL(info.ID, time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"), "got %s", url)

	_, err = s.SignedURL("no-such-id", time.Hour)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

// countingStorage wraps a Storage and counts SignedURL calls.
type countingStorage struct {
	Storage
	signCalls int64
}

func (c *countingStorage) SignedURL(id string, expiry time.Duration) (string, error) {
	n := atomic.AddInt64(&c.signCalls, 1)
	return fmt.Sprintf("https://example.com/%s?sig=%d", id, n), nil
}

func TestURLCache(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	backend := &countingStorage{}
	cache := NewURLCache(backend, time.Hour, WithClock(clock), WithMargin(5*time.Minute))

	t.Run("caches within ttl", func(t *testing.T) {
		first, err := cache.Get("doc-1")
		require.NoError(t, err)

		second, err := cache.Get("doc-1")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), backend.signCalls, "second hit must not re-sign")
	})

	t.Run("re-signs near expiry", func(t *testing.T) {
		// 56 minutes in: within the 5-minute safety margin of the
		// 1-hour ttl, so the cached URL counts as stale.
		now = now.Add(56 * time.Minute)

		fresh, err := cache.Get("doc-1")
		require.NoError(t, err)
		assert.Contains(t, fresh, "sig=2")
		assert.Equal(t, int64(2), backend.signCalls)
	})

	t.Run("evict forces re-sign", func(t *testing.T) {
		cache.Evict("doc-1")
		assert.Equal(t, 0, cache.Len())

		_, err := cache.Get("doc-1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), backend.signCalls)
	})

	t.Run("distinct ids cached separately", func(t *testing.T) {
		_, err := cache.Get("doc-2")
		require.NoError(t, err)
		assert.Equal(t, 2, cache.Len())
	})
}
