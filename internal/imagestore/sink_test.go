package imagestore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/inspecasa/internal/db"
	"github.com/erazemk/inspecasa/internal/store"
)

func TestSQLiteSinkPut(t *testing.T) {
	database := db.NewTestDB(t)
	sink := &SQLiteSink{DB: database, PublicURL: "https://inspect.example.com/"}

	url, err := sink.Put(context.Background(), KindImages, "abc.jpg", []byte{1, 2, 3}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://inspect.example.com/api/images/abc", url)

	img, err := store.GetImage(context.Background(), database, "abc")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, KindImages, img.Kind)
	assert.Equal(t, "image/jpeg", img.MIME)
	assert.Equal(t, []byte{1, 2, 3}, img.Data)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkPut(t *testing.T) {
	client := &fakeS3{}
	sink := &S3Sink{client: client, bucket: "photos", publicURL: "https://cdn.example.com"}

	url, err := sink.Put(context.Background(), KindSignatures, "sig.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/property-inspections/signatures/sig.png", url)
	assert.Equal(t, "photos", aws.ToString(client.input.Bucket))
	assert.Equal(t, "property-inspections/signatures/sig.png", aws.ToString(client.input.Key))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, []byte("png"), client.body)
}

func TestS3SinkPutError(t *testing.T) {
	sink := &S3Sink{client: &fakeS3{err: errors.New("access denied")}, bucket: "photos", publicURL: "https://cdn.example.com"}

	_, err := sink.Put(context.Background(), KindImages, "a.jpg", []byte("x"), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewS3SinkPublicURL(t *testing.T) {
	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket:    "photos",
		Region:    "eu-central-1",
		Endpoint:  "http://localhost:9000/",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/photos", sink.publicURL)

	_, err = NewS3Sink(context.Background(), S3Config{})
	assert.Error(t, err)
}
