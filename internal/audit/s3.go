package audit

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// S3Uploader pushes finished audit logs to a bucket.
type S3Uploader struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
}

// NewS3Uploader creates an uploader using the default AWS credential chain.
func NewS3Uploader(bucket, region, prefix string) (*S3Uploader, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return NewS3UploaderWith(s3manager.NewUploader(sess), bucket, prefix), nil
}

// NewS3UploaderWith wraps an existing uploader.
func NewS3UploaderWith(u s3manageriface.UploaderAPI, bucket, prefix string) *S3Uploader {
	return &S3Uploader{uploader: u, bucket: bucket, prefix: prefix}
}

// Key returns the object key a local file is uploaded to.
func (u *S3Uploader) Key(runID, localPath string) string {
	return path.Join(u.prefix, runID, filepath.Base(localPath))
}

// Upload sends the file at localPath and returns its location.
func (u *S3Uploader) Upload(ctx context.Context, runID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	result, err := u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.Key(runID, localPath)),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s: %w", localPath, u.bucket, err)
	}
	return result.Location, nil
}
