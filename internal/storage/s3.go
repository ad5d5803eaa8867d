// Package storage provides object storage for trip images behind a narrow interface.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// ObjectStore uploads and removes trip images. Implementations are external
// collaborators; failures surface to the caller, which decides whether the
// operation is fatal.
type ObjectStore interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// NewImageKey builds a unique object key for an uploaded trip image.
func NewImageKey(tripUserID uint, filename string) string {
	ext := path.Ext(filename)
	return fmt.Sprintf("trips/%d/%s%s", tripUserID, uuid.NewString(), ext)
}

// S3Store is the AWS S3 implementation of ObjectStore.
type S3Store struct {
	s3      *s3.S3
	bucket  string
	baseURL string
}

// NewS3Store creates an S3-backed store. baseURL overrides the default
// virtual-hosted URL, for CDN fronting; empty means the plain S3 URL.
func NewS3Store(region, bucket, baseURL string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		s3:      s3.New(sess),
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	// PutObject needs a ReadSeeker for signing, so buffer the upload.
	buf, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	_, err = s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf),
		ContentLength: aws.Int64(int64(len(buf))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key), nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	key := s.keyFromURL(url)
	if key == "" {
		return fmt.Errorf("url %q does not belong to bucket %s", url, s.bucket)
	}
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3Store) keyFromURL(url string) string {
	prefixes := []string{
		fmt.Sprintf("https://%s.s3.amazonaws.com/", s.bucket),
	}
	if s.baseURL != "" {
		prefixes = append(prefixes, s.baseURL+"/")
	}
	for _, p := range prefixes {
		if strings.HasPrefix(url, p) {
			return strings.TrimPrefix(url, p)
		}
	}
	return ""
}
