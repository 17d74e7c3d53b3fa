package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pollster_errors "battle-pollster/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryHost_Upload(t *testing.T) {
	var preset, filename, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		preset = r.FormValue("upload_preset")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		filename, body = hdr.Filename, string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.test/cat.png"}`))
	}))
	defer srv.Close()

	host, err := NewCloudinaryHost(CloudinaryConfig{UploadURL: srv.URL})
	require.NoError(t, err)

	url, err := host.Upload(context.Background(), Image{Filename: "cat.png", ContentType: "image/png", Body: strings.NewReader("meow")})
	require.NoError(t, err)
	assert.Equal(t, "https://res.test/cat.png", url)
	assert.Equal(t, "upload_file", preset)
	assert.Equal(t, "cat.png", filename)
	assert.Equal(t, "meow", body)
}

func TestCloudinaryHost_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	host, err := NewCloudinaryHost(CloudinaryConfig{UploadURL: srv.URL, UploadPreset: "polls"})
	require.NoError(t, err)

	_, err = host.Upload(context.Background(), Image{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, pollster_errors.ErrNotUploaded)
}

func TestCloudinaryHost_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	host, err := NewCloudinaryHost(CloudinaryConfig{UploadURL: srv.URL})
	require.NoError(t, err)

	_, err = host.Upload(context.Background(), Image{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, pollster_errors.ErrNotUploaded)
}

func TestNewCloudinaryHost_RequiresURL(t *testing.T) {
	_, err := NewCloudinaryHost(CloudinaryConfig{})
	assert.Error(t, err)
}

func TestS3Host_Upload(t *testing.T) {
	putter := &recordingPutter{}
	c, err := NewClientWithAPI(S3Config{Bucket: "polls", PublicBase: "https://cdn.test"}, putter)
	require.NoError(t, err)
	host := NewS3Host(c, "/images/")

	url, err := host.Upload(context.Background(), Image{Filename: "Dog.JPG", ContentType: "image/jpeg", Body: strings.NewReader("woof")})
	require.NoError(t, err)

	key := aws.ToString(putter.input.Key)
	assert.True(t, strings.HasPrefix(key, "images/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "https://cdn.test/"+key, url)
	assert.Equal(t, "woof", putter.body)
}

func TestS3Host_NoBody(t *testing.T) {
	c, err := NewClientWithAPI(S3Config{Bucket: "polls", PublicBase: "https://cdn.test"}, &recordingPutter{})
	require.NoError(t, err)

	_, err = NewS3Host(c, "").Upload(context.Background(), Image{Filename: "a.png", ContentType: "image/png"})
	assert.ErrorIs(t, err, pollster_errors.ErrNotUploaded)
}
