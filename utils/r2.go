// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Endpoint        string // overrides the account endpoint, e.g. for an S3-compatible store
}

// Enabled reports whether enough is set to talk to R2.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// R2 uploads objects to a Cloudflare R2 bucket over the S3 API.
type R2 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewR2(ctx context.Context, c R2Config) (*R2, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	pathStyle := false
	if c.Endpoint != "" {
		endpoint, pathStyle = strings.TrimSuffix(c.Endpoint, "/"), true
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to load R2 config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = pathStyle
	})
	return &R2{client: client, bucket: c.Bucket, baseURL: endpoint + "/" + c.Bucket}, nil
}

// Upload stores body under key and returns the object URL.
func (r *R2) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", eris.Wrapf(err, "failed to upload %s to R2", key)
	}
	return fmt.Sprintf("%s/%s", r.baseURL, key), nil
}
