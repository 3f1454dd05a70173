package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryUpload(t *testing.T) {
	var got struct {
		path, preset, folder, publicID, filename string
		size                                     int
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got.preset = r.FormValue("upload_preset")
		got.folder = r.FormValue("folder")
		got.publicID = r.FormValue("public_id")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		got.filename = hdr.Filename
		got.size = len(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"secure_url":"https://res.test/a.jpg","delete_token":"dt-1"}`)
	}))
	defer srv.Close()

	c := NewCloudinary(srv.URL+"/", "demo", "unsigned", srv.Client())
	asset, err := c.Upload(context.Background(), File{Filename: "a.jpg", Data: []byte("abc")}, Options{Folder: "projects/a/hero", Name: "a-hero"})
	require.NoError(t, err)

	assert.Equal(t, Asset{URL: "https://res.test/a.jpg", DeleteToken: "dt-1"}, asset)
	assert.Equal(t, "/demo/upload", got.path)
	assert.Equal(t, "unsigned", got.preset)
	assert.Equal(t, "projects/a/hero", got.folder)
	assert.Equal(t, "a-hero", got.publicID)
	assert.Equal(t, "a.jpg", got.filename)
	assert.Equal(t, 3, got.size)
}

func TestCloudinaryUploadOmitsEmptyOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hasFolder := r.MultipartForm.Value["folder"]
		_, hasID := r.MultipartForm.Value["public_id"]
		assert.False(t, hasFolder)
		assert.False(t, hasID)
		_, _ = io.WriteString(w, `{"secure_url":"https://res.test/b.jpg"}`)
	}))
	defer srv.Close()

	c := NewCloudinary(srv.URL, "demo", "unsigned", srv.Client())
	asset, err := c.Upload(context.Background(), File{Filename: "b.jpg", Data: []byte("b")}, Options{})
	require.NoError(t, err)
	assert.Empty(t, asset.DeleteToken)
}

func TestCloudinaryUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Upload preset not found"}}`)
	}))
	defer srv.Close()

	c := NewCloudinary(srv.URL, "demo", "missing", srv.Client())
	_, err := c.Upload(context.Background(), File{Filename: "a.jpg", Data: []byte("a")}, Options{})

	var me *Error
	require.True(t, errors.As(err, &me), "err = %v", err)
	assert.Equal(t, http.StatusBadRequest, me.Status)
	assert.Equal(t, "Upload preset not found", me.Message)
}

func TestCloudinaryDeleteByToken(t *testing.T) {
	var path, token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		token = r.PostFormValue("token")
		_, _ = io.WriteString(w, `{"result":"ok"}`)
	}))
	defer srv.Close()

	c := NewCloudinary(srv.URL, "demo", "unsigned", srv.Client())
	require.NoError(t, c.DeleteByToken(context.Background(), "dt-1"))
	assert.Equal(t, "/demo/delete_by_token", path)
	assert.Equal(t, "dt-1", token)
}

func TestCloudinaryDeleteExpiredToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Stale request"}}`)
	}))
	defer srv.Close()

	c := NewCloudinary(srv.URL, "demo", "unsigned", srv.Client())
	err := c.DeleteByToken(context.Background(), "old")
	assert.ErrorContains(t, err, "Stale request")
}
