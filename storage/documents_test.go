package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillarena/config"
	"skillarena/models"
	"skillarena/service"
)

type fakePutter struct {
	inputs  []*s3.PutObjectInput
	bodies  [][]byte
	deleted []string
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakePutter) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestDocumentStore_Delete(t *testing.T) {
	putter := &fakePutter{}
	store := &DocumentStore{client: putter, bucket: "kyc"}

	err := store.Delete(context.Background(), "verification/42/abc.png")

	require.NoError(t, err)
	assert.Equal(t, []string{"kyc/verification/42/abc.png"}, putter.deleted)
}

func TestDocumentStore_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads under owner prefix", func(t *testing.T) {
		putter := &fakePutter{}
		store := &DocumentStore{client: putter, bucket: "kyc"}

		key, err := store.Put(ctx, 42, &models.Document{
			Filename:    "../../passport.png",
			ContentType: "image/png",
			Data:        []byte("png-bytes"),
		})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(key, "verification/42/"))
		assert.True(t, strings.HasSuffix(key, ".png"))
		require.Len(t, putter.inputs, 1)
		assert.Equal(t, "kyc", aws.ToString(putter.inputs[0].Bucket))
		assert.Equal(t, key, aws.ToString(putter.inputs[0].Key))
		assert.Equal(t, "passport.png", putter.inputs[0].Metadata["filename"])
		assert.Equal(t, []byte("png-bytes"), putter.bodies[0])
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		store := &DocumentStore{client: &fakePutter{}, bucket: "kyc"}

		_, err := store.Put(ctx, 42, &models.Document{ContentType: "text/html", Data: []byte("<p>")})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("rejects oversized", func(t *testing.T) {
		store := &DocumentStore{client: &fakePutter{}, bucket: "kyc"}

		_, err := store.Put(ctx, 42, &models.Document{ContentType: "application/pdf", Data: make([]byte, MaxDocumentSize+1)})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("rejects empty", func(t *testing.T) {
		store := &DocumentStore{client: &fakePutter{}, bucket: "kyc"}

		_, err := store.Put(ctx, 42, &models.Document{ContentType: "image/png"})
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestNewDocumentStore_DisabledWithoutBucket(t *testing.T) {
	store, err := NewDocumentStore(context.Background(), config.NewTestConfig())

	require.NoError(t, err)
	assert.Nil(t, store)
}
