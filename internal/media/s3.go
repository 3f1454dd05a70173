// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// S3Options configures an S3 or S3-compatible bucket.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, switches to path-style addressing
	PublicURL       string // base URL objects are served from
	AccessKeyID     string // optional, falls back to the default chain
	SecretAccessKey string
}

// S3 stores images in a bucket. The object key doubles as the delete
// token.
type S3 struct {
	bucket    string
	publicURL string
	client    *s3.Client
	uploader  *manager.Uploader
}

// NewS3 returns a bucket gateway.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		client:    client,
		uploader:  manager.NewUploader(client),
	}, nil
}

// Key returns the object key for an upload: {folder}/{name}-{uuid}{ext}.
func Key(f File, opts Options) string {
	name := opts.Name
	if name == "" {
		name = AssetName(strings.TrimSuffix(f.Filename, path.Ext(f.Filename)))
	}
	if name == "" {
		name = "image"
	}
	ext := mimetype.Detect(f.Data).Extension()
	return path.Join(opts.Folder, fmt.Sprintf("%s-%s%s", name, uuid.NewString(), ext))
}

// Upload puts f into the bucket.
func (s *S3) Upload(ctx context.Context, f File, opts Options) (Asset, error) {
	key := Key(f, opts)
	contentType := f.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(f.Data).String()
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Asset{}, fmt.Errorf("uploading %s to s3: %w", key, err)
	}
	return Asset{URL: s.publicURL + "/" + key, DeleteToken: key}, nil
}

// DeleteByToken removes the object whose key is token.
func (s *S3) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(token),
	})
	if err != nil {
		return fmt.Errorf("deleting %s from s3: %w", token, err)
	}
	return nil
}
