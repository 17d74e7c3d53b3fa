package storage

import (
	"context"
	"io"
	"path"
	"strings"

	pollster_errors "battle-pollster/pkg/errors"

	"github.com/google/uuid"
)

// Image is one picture submitted with a new poll.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ImageHost stores an image and returns the URL the backend should keep.
type ImageHost interface {
	Upload(ctx context.Context, img Image) (string, error)
}

// S3Host uploads poll images to a bucket under uuid keys.
type S3Host struct {
	client *Client
	prefix string
}

func NewS3Host(client *Client, prefix string) *S3Host {
	return &S3Host{client: client, prefix: strings.Trim(prefix, "/")}
}

func (h *S3Host) Upload(ctx context.Context, img Image) (string, error) {
	if img.Body == nil {
		return "", pollster_errors.ErrNotUploaded
	}
	key := h.objectKey(img.Filename)
	url, err := h.client.Put(ctx, key, img.ContentType, img.Body)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", pollster_errors.ErrNotUploaded
	}
	return url, nil
}

func (h *S3Host) objectKey(filename string) string {
	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	if h.prefix == "" {
		return name
	}
	return h.prefix + "/" + name
}
