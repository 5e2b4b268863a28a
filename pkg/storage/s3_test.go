package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		b, _ := io.ReadAll(params.Body)
		f.body = string(b)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestProfilePictureKey(t *testing.T) {
	assert.Equal(t, "profile_pictures/abebe_profile.png", ProfilePictureKey("abebe", "me.PNG"))
	assert.Equal(t, "profile_pictures/abebe_profile.jpg", ProfilePictureKey("abebe", "noext"))
}

func TestS3Store_Put(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, cfg: S3Config{Bucket: "hospital", Region: "eu-west-1"}}

	url, err := store.Put(context.Background(), "profile_pictures/a_profile.png", strings.NewReader("img"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://hospital.s3.eu-west-1.amazonaws.com/profile_pictures/a_profile.png", url)
	assert.Equal(t, "hospital", *fake.input.Bucket)
	assert.Equal(t, "image/png", *fake.input.ContentType)
	assert.Equal(t, "img", fake.body)
}

func TestS3Store_PutError(t *testing.T) {
	store := &S3Store{client: &fakeS3{err: errors.New("boom")}, cfg: S3Config{Bucket: "b"}}

	_, err := store.Put(context.Background(), "k", strings.NewReader(""), "image/png")
	assert.Error(t, err)
}

func TestS3Store_URL(t *testing.T) {
	s := &S3Store{cfg: S3Config{Bucket: "b", Endpoint: "http://minio:9000/"}}
	assert.Equal(t, "http://minio:9000/b/k", s.URL("k"))

	s = &S3Store{cfg: S3Config{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}}
	assert.Equal(t, "https://cdn.example.com/k", s.URL("k"))
}
