package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("posts", "../My Photo.png")
	assert.True(t, strings.HasPrefix(key, "posts/"))
	assert.True(t, strings.HasSuffix(key, "-My_Photo.png"))
	assert.NotEqual(t, key, ObjectKey("posts", "../My Photo.png"))
}

func TestS3StoreUpload(t *testing.T) {
	var gotPath, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewS3Store(S3Config{
		Bucket:    "postnest",
		Location:  "https://postnest.s3.amazonaws.com/",
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
		Endpoint:  srv.URL,
	})

	content := []byte("image-bytes")
	url, err := store.Upload(context.Background(), Object{
		Key:         "posts/img.png",
		Body:        bytes.NewReader(content),
		Size:        int64(len(content)),
		ContentType: "image/png",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://postnest.s3.amazonaws.com/posts/img.png", url)
	assert.Equal(t, "/postnest/posts/img.png", gotPath)
	assert.Equal(t, "image-bytes", gotBody)
	assert.Equal(t, "image/png", gotType)
}

func TestS3StoreUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	defer srv.Close()

	store := NewS3Store(S3Config{Bucket: "postnest", Region: "us-east-1", AccessKey: "test", SecretKey: "test", Endpoint: srv.URL})

	_, err := store.Upload(context.Background(), Object{Key: "posts/img.png", Body: bytes.NewReader([]byte("x")), Size: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "posts/img.png")
}
