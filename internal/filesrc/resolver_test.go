package filesrc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	assert.IsType(t, &BlobResolver{}, Detect("http://host/blob/1"))
	assert.IsType(t, &BlobResolver{}, Detect("https://host/blob/1"))
	assert.IsType(t, &BlobResolver{}, Detect("blob:http://host/1234"))
	assert.IsType(t, &PathResolver{}, Detect("/tmp/cat.png"))
	assert.IsType(t, &PathResolver{}, Detect("cat.png"))
}

func TestPathResolver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o644))

	f, err := (&PathResolver{}).Resolve(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "cat.png", f.Name)
	assert.Equal(t, []byte("image-bytes"), f.Content)
}

func TestPathResolverMissingFile(t *testing.T) {
	_, err := (&PathResolver{}).Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
}

func TestBlobResolver(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer ts.Close()

	f, err := (&BlobResolver{}).Resolve(context.Background(), ts.URL+"/photos/cat.jpg")
	require.NoError(t, err)

	assert.Equal(t, "cat.jpg", f.Name)
	assert.Equal(t, "image/jpeg", f.MIME)
	assert.Equal(t, []byte("jpeg-bytes"), f.Content)
}

func TestBlobResolverStripsBlobScheme(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer ts.Close()

	f, err := (&BlobResolver{}).Resolve(context.Background(), "blob:"+ts.URL+"/photos/cat.png")
	require.NoError(t, err)

	assert.Equal(t, "cat.png", f.Name)
	assert.Equal(t, "image/png", f.MIME)
	assert.Equal(t, []byte("png-bytes"), f.Content)
}

func TestBlobResolverErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := (&BlobResolver{}).Resolve(context.Background(), ts.URL+"/gone.jpg")
	require.Error(t, err)
}
