package filecomp

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bmatcuk/doublestar/v4"
)

// S3API is the part of the S3 client S3Source uses.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads templates from an S3 bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	src := filecomp.S3Source{Client: s3.NewFromConfig(cfg), Bucket: "site", Prefix: "templates/"}
type S3Source struct {
	Client S3API
	Bucket string

	// Prefix is stripped from keys to form template paths.
	Prefix string

	// Pattern is a doublestar glob. Default: DefaultPattern.
	Pattern string

	// MaxSize bounds a single template in bytes (0 = 1MB).
	MaxSize int64
}

func (s S3Source) Files(ctx context.Context) (map[string]string, error) {
	pattern := s.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	maxSize := s.MaxSize
	if maxSize <= 0 {
		maxSize = 1 << 20
	}

	files := map[string]string{}
	pages := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(s.Prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s/%s: %w", s.Bucket, s.Prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, s.Prefix)
			if ok, _ := doublestar.Match(pattern, name); !ok {
				continue
			}
			body, err := s.get(ctx, key, maxSize)
			if err != nil {
				return nil, err
			}
			files[name] = body
		}
	}
	return files, nil
}

func (s S3Source) get(ctx context.Context, key string, maxSize int64) (string, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxSize+1))
	if err != nil {
		return "", fmt.Errorf("s3 read %s: %w", key, err)
	}
	if int64(len(b)) > maxSize {
		return "", fmt.Errorf("s3 object %s exceeds %d bytes", key, maxSize)
	}
	return string(b), nil
}
