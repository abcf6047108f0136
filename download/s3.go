package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const contentType = "video/webm"

type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// ObjectPutter is the subset of *s3.Client the sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads downloads to an S3-compatible bucket.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *logrus.Logger
}

var _ Sink = (*S3Sink)(nil)

// NewS3Sink loads the default AWS configuration. Static credentials and a
// custom endpoint override it when set.
func NewS3Sink(ctx context.Context, cfg S3Config, logger *logrus.Logger) (*S3Sink, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "unable to load SDK config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3SinkFromClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func NewS3SinkFromClient(client ObjectPutter, bucket, prefix string, logger *logrus.Logger) *S3Sink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

func (s *S3Sink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", pkgerrors.Wrap(err, "read download")
	}

	key := path.Join(s.prefix, path.Base(name))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to upload %s to S3", key)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.WithFields(logrus.Fields{
		"location": location,
		"size":     len(data),
	}).Info("Download uploaded")
	return location, nil
}
