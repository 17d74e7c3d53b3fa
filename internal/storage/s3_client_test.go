package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (r *recordingPutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.input = params
	if params.Body != nil {
		data, _ := io.ReadAll(params.Body)
		r.body = string(data)
	}
	return &s3.PutObjectOutput{}, r.err
}

func TestClient_Put(t *testing.T) {
	putter := &recordingPutter{}
	c, err := NewClientWithAPI(S3Config{Bucket: "polls", PublicBase: "https://cdn.test/", ACL: "public-read"}, putter)
	require.NoError(t, err)

	url, err := c.Put(context.Background(), "polls/abc.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.test/polls/abc.png", url)
	assert.Equal(t, "polls", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "polls/abc.png", aws.ToString(putter.input.Key))
	assert.Equal(t, types.ObjectCannedACLPublicRead, putter.input.ACL)
	assert.Equal(t, "png-bytes", putter.body)
}

func TestClient_Put_RejectsNonImages(t *testing.T) {
	putter := &recordingPutter{}
	c, err := NewClientWithAPI(S3Config{Bucket: "polls", PublicBase: "https://cdn.test"}, putter)
	require.NoError(t, err)

	_, err = c.Put(context.Background(), "polls/x.txt", "text/plain", strings.NewReader("x"))
	require.Error(t, err)
	assert.Nil(t, putter.input)
}

func TestClient_Put_PropagatesFailure(t *testing.T) {
	putter := &recordingPutter{err: errors.New("access denied")}
	c, err := NewClientWithAPI(S3Config{Bucket: "polls", PublicBase: "https://cdn.test"}, putter)
	require.NoError(t, err)

	_, err = c.Put(context.Background(), "polls/x.png", "image/png", strings.NewReader("x"))
	assert.EqualError(t, err, "access denied")
}

func TestValidateACL(t *testing.T) {
	_, err := ValidateACL("world-writable")
	assert.Error(t, err)

	acl, err := ValidateACL("")
	require.NoError(t, err)
	assert.Equal(t, types.ObjectCannedACLPrivate, acl)
}
