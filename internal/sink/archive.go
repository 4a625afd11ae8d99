package sink

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/config"
	"github.com/markusj1201/SoHa-Priorities/internal/export"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// ObjectPutter is the S3 call the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// archiveStamp names archived snapshots.
const archiveStamp = "2006-01-02T150405"

// Archive keeps a CSV copy of every written table in S3.
type Archive struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewArchive builds an S3 client from cfg. It returns nil when no bucket
// is configured. Static keys, when set, override the default credential
// chain.
func NewArchive(ctx context.Context, cfg config.ArchiveConfig) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "sink: load aws config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewArchiveWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewArchiveWithClient wraps an existing client.
func NewArchiveWithClient(client ObjectPutter, bucket, prefix string) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a snapshot of schema.table taken at calc.
func (a *Archive) Key(schema, table string, calc time.Time) string {
	return path.Join(a.prefix, schema, table, calc.Format(archiveStamp)+".csv")
}

// Put uploads t as CSV and returns the object key.
func (a *Archive) Put(ctx context.Context, t *tabular.Table, table, schema string, calc time.Time) (string, error) {
	var buf bytes.Buffer
	if err := export.CSV(&buf, t); err != nil {
		return "", eris.Wrap(err, "sink: archive encode")
	}
	key := a.Key(schema, table, calc)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", eris.Wrapf(err, "sink: archive put s3://%s/%s", a.bucket, key)
	}
	return key, nil
}

// Keep uploads t and logs instead of failing. A nil archive does nothing.
func (a *Archive) Keep(ctx context.Context, t *tabular.Table, table, schema string, calc time.Time) {
	if a == nil {
		return
	}
	log := zap.L().With(zap.String("component", "archive"))
	key, err := a.Put(ctx, t, table, schema, calc)
	if err != nil {
		log.Warn("archive failed", zap.String("table", schema+"."+table), zap.Error(err))
		return
	}
	log.Info("table archived", zap.String("bucket", a.bucket), zap.String("key", key), zap.Int("rows", t.Len()))
}
