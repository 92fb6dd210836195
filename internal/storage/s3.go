// Package storage stores opaque image references in S3. The rest of the
// application only keeps object keys on records and never interprets the
// content.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Client struct {
	Client *s3.Client
	Bucket string
}

func NewS3Client(ctx context.Context, bucket string) (*S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("unable to load SDK config: %v", err)
		return nil, errors.New("unable to load SDK config")
	}
	return &S3Client{Client: s3.NewFromConfig(cfg), Bucket: bucket}, nil
}

// PutObject uploads one object under the given key.
func (c *S3Client) PutObject(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := c.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &c.Bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		log.Printf("failed to put object %q: %v", key, err)
		return errors.New("failed to put object")
	}
	return nil
}

// DeleteObject removes the object under the given key. Missing objects are
// not an error; S3 deletes are idempotent.
func (c *S3Client) DeleteObject(ctx context.Context, key string) error {
	_, err := c.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.Bucket,
		Key:    &key,
	})
	if err != nil {
		log.Printf("failed to delete object %q: %v", key, err)
		return errors.New("failed to delete object")
	}
	return nil
}

// URL returns the public URL for a stored key, or "" for an empty key.
func (c *S3Client) URL(key string) string {
	if key == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", c.Bucket, key)
}
