package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"skillarena/config"
	"skillarena/models"
	"skillarena/service"
)

// MaxDocumentSize is the largest verification document accepted
const MaxDocumentSize = 5 << 20

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

type objectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// DocumentStore keeps verification documents in an S3 compatible bucket
type DocumentStore struct {
	client objectClient
	bucket string
}

var _ service.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore connects to the configured bucket.
// Returns nil when no bucket is configured.
func NewDocumentStore(ctx context.Context, cfg *config.Config) (*DocumentStore, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	log.WithFields(log.Fields{
		"bucket":   cfg.S3Bucket,
		"endpoint": cfg.S3Endpoint,
	}).Info("Document storage configured")

	return &DocumentStore{client: client, bucket: cfg.S3Bucket}, nil
}

// Put uploads a document and returns its object key
func (d *DocumentStore) Put(ctx context.Context, owner models.AccountID, doc *models.Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", service.NewValidationError("document is empty")
	}
	if len(doc.Data) > MaxDocumentSize {
		return "", service.NewValidationError("document exceeds %d MB", MaxDocumentSize>>20)
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(doc.ContentType, ";")[0]))
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return "", service.NewValidationError("unsupported document type %q", doc.ContentType)
	}

	key := DocumentKey(owner, ext)
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(doc.Data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(doc.Data))),
		Metadata: map[string]string{
			"owner":    owner.String(),
			"filename": path.Base(doc.Filename),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	log.WithFields(log.Fields{
		"userId": owner,
		"key":    key,
		"size":   len(doc.Data),
	}).Debug("Verification document stored")

	return key, nil
}

// Delete removes a document by key
func (d *DocumentStore) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DocumentKey builds a unique object key under the owner's prefix
func DocumentKey(owner models.AccountID, ext string) string {
	return fmt.Sprintf("verification/%d/%s%s", owner, uuid.NewString(), ext)
}
