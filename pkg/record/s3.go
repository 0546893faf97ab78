package record

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/milweb-dev/milweb/pkg/canvas"
)

// PutObjectAPI is the subset of the S3 client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads one object per frame at
// <prefix>/<session>/<buffer>/<serial>.<ext>. Images and displays are
// stored as PNG, text messages as .txt and everything else as .bin.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink creates a sink writing to bucket.
//
// Example usage:
//
//	client := record.NewS3Client("eu-west-1", "")
//	sink := record.NewS3Sink(client, "frames", "inspector")
func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Client builds an S3 client for region. A non-empty endpoint selects
// an S3-compatible server with path-style addressing. Credentials come
// from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
func NewS3Client(region, endpoint string) *s3.Client {
	opts := s3.Options{
		Region: region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
					SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
					SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
					Source:          "environment",
				}, nil
			})),
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// Key returns the object key of f.
func (s *S3Sink) Key(f Frame) string {
	ext := ".bin"
	switch {
	case f.Pictorial():
		ext = ".png"
	case f.Text:
		ext = ".txt"
	}
	return path.Join(s.prefix, f.Session, f.Buffer, fmt.Sprintf("%010d%s", f.Serial, ext))
}

func encode(f Frame) ([]byte, string, error) {
	switch {
	case f.Pictorial():
		surface := canvas.NewSurface(int(f.Width), int(f.Height))
		surface.Draw(f.Data, f.Format)
		var buf bytes.Buffer
		if err := surface.EncodePNG(&buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	case f.Text:
		return f.Data, "text/plain; charset=utf-8", nil
	default:
		return f.Data, "application/octet-stream", nil
	}
}

// Write uploads f.
func (s *S3Sink) Write(ctx context.Context, f Frame) error {
	body, contentType, err := encode(f)
	if err != nil {
		return fmt.Errorf("encode %s/%d: %w", f.Buffer, f.Serial, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.Key(f)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"group":         f.Group,
			"group-counter": strconv.FormatInt(f.GroupCounter, 10),
			"kind":          f.Kind.String(),
			"record-time":   f.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no resources.
func (s *S3Sink) Close() error { return nil }
