package dir

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/manualsvc/bundler/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert := assert.New(t)

	// when
	_, err := New("")

	// then
	assert.NotNil(err)
}

func TestPutGet(t *testing.T) {
	assert := assert.New(t)

	s, err := New(t.TempDir())
	require.Nil(t, err)

	// when
	err = s.Put(context.Background(), "exports/SVC-001/a/manifest.json", []byte(`{}`))
	assert.Nil(err)

	// then
	b, err := s.Get(context.Background(), "exports/SVC-001/a/manifest.json")
	assert.Nil(err)
	assert.Equal(`{}`, string(b))
}

func TestGetNotFound(t *testing.T) {
	assert := assert.New(t)

	s, err := New(t.TempDir())
	require.Nil(t, err)

	// when
	_, err = s.Get(context.Background(), "exports/SVC-001/missing.json")

	// then
	assert.ErrorIs(err, blobstore.ErrNotFound)
}

func TestList(t *testing.T) {
	assert := assert.New(t)

	s, err := New(t.TempDir())
	require.Nil(t, err)

	ctx := context.Background()
	require.Nil(t, s.Put(ctx, "exports/SVC-001/a/main.bpmn", []byte("a")))
	require.Nil(t, s.Put(ctx, "exports/SVC-001/b/main.bpmn", []byte("b")))
	require.Nil(t, s.Put(ctx, "exports/SVC-002/c/main.bpmn", []byte("c")))

	// when
	paths, err := s.List(ctx, "exports/SVC-001/")

	// then
	assert.Nil(err)
	assert.Len(paths, 2)
	for _, path := range paths {
		assert.True(strings.HasPrefix(path, "exports/SVC-001/"), path)
	}
}

func TestDelete(t *testing.T) {
	assert := assert.New(t)

	s, err := New(t.TempDir())
	require.Nil(t, err)

	ctx := context.Background()
	require.Nil(t, s.Put(ctx, "exports/SVC-001/a/main.bpmn", []byte("a")))

	// when
	assert.Nil(s.Delete(ctx, "exports/SVC-001/a/main.bpmn"))

	// then
	_, err = s.Get(ctx, "exports/SVC-001/a/main.bpmn")
	assert.ErrorIs(err, blobstore.ErrNotFound)

	// deleting again is not an error
	assert.Nil(s.Delete(ctx, "exports/SVC-001/a/main.bpmn"))
}

func TestSignedUrl(t *testing.T) {
	assert := assert.New(t)

	s, err := New(t.TempDir())
	require.Nil(t, err)

	ctx := context.Background()
	require.Nil(t, s.Put(ctx, "exports/SVC-001/a/bundle.zip", []byte("zip")))

	// when
	url, err := s.SignedUrl(ctx, "exports/SVC-001/a/bundle.zip", time.Hour)

	// then
	assert.Nil(err)
	assert.True(strings.HasPrefix(url, "file://"), url)
	assert.True(strings.HasSuffix(url, "bundle.zip"), url)
}

func TestInvalidPath(t *testing.T) {
	assert := assert.New(t)

	s, err := New(t.TempDir())
	require.Nil(t, err)

	// when
	err = s.Put(context.Background(), "../escape", []byte("x"))

	// then
	assert.NotNil(err)
}
