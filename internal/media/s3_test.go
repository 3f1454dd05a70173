package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket answers path-style PutObject and DeleteObject requests.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		b.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3UploadAndDelete(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(bucket)
	defer srv.Close()

	ctx := context.Background()
	gw, err := NewS3(ctx, S3Options{
		Bucket:          "site",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		PublicURL:       "https://cdn.test/",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)

	data := encodePNG(t, 4, 4)
	asset, err := gw.Upload(ctx, File{Filename: "hero.png", ContentType: TypePNG, Data: data}, Options{Folder: "projects/a/hero", Name: "a-hero"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.DeleteToken, "projects/a/hero/a-hero-"), asset.DeleteToken)
	assert.True(t, strings.HasSuffix(asset.DeleteToken, ".png"), asset.DeleteToken)
	assert.Equal(t, "https://cdn.test/"+asset.DeleteToken, asset.URL)

	bucket.mu.Lock()
	stored, ok := bucket.objects["site/"+asset.DeleteToken]
	contentType := bucket.types["site/"+asset.DeleteToken]
	bucket.mu.Unlock()
	require.True(t, ok, "object not stored")
	assert.NotEmpty(t, stored)
	assert.Equal(t, TypePNG, contentType)

	require.NoError(t, gw.DeleteByToken(ctx, asset.DeleteToken))
	bucket.mu.Lock()
	_, ok = bucket.objects["site/"+asset.DeleteToken]
	bucket.mu.Unlock()
	assert.False(t, ok, "object survived delete")
}

func TestKeyFallsBackToFilename(t *testing.T) {
	key := Key(File{Filename: "Front Door.JPG", Data: encodeJPEG(t, 2, 2)}, Options{Folder: "projects/a/gallery"})
	assert.True(t, strings.HasPrefix(key, "projects/a/gallery/front-door-"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
}
