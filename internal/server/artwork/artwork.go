// Package artwork turns item artwork references into URLs a client can load.
// References that are already URLs pass through; anything else is an object
// key in the configured S3-compatible bucket and gets a presigned GET URL.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/google/uuid"
)

var ErrDisabled = errors.New("artwork storage is not configured")

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type Resolver struct {
	bucket    string
	region    string
	endpoint  string
	accessKey string
	secretKey string
	ttl       time.Duration
	log       logging.Logger

	mu      sync.Mutex
	presign *s3.PresignClient
}

func NewResolver(cfg *config.Config, log logging.Logger) *Resolver {
	return &Resolver{
		bucket:    cfg.S3Bucket,
		region:    cfg.S3Region,
		endpoint:  cfg.S3BaseEndpoint,
		accessKey: cfg.S3RootUser,
		secretKey: cfg.S3RootPassword,
		ttl:       cfg.ArtworkURLTTL,
		log:       log.With("module", "artwork"),
	}
}

// Enabled reports whether a bucket is configured.
func (r *Resolver) Enabled() bool { return r.bucket != "" }

// NewKey returns a fresh object key for an uploaded artwork.
func NewKey(now time.Time) string {
	return fmt.Sprintf("items/%d/%d/%d/%v", now.Year(), now.Month(), now.Day(), uuid.New())
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func (r *Resolver) client(ctx context.Context) (*s3.PresignClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.presign != nil {
		return r.presign, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(r.region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.accessKey, r.secretKey, "")))
	if err != nil {
		return nil, err
	}

	c := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if r.endpoint != "" {
			o.BaseEndpoint = aws.String(r.endpoint)
			o.UsePathStyle = true
		}
	})
	r.presign = newS3PresignClient(c)
	return r.presign, nil
}

// URL resolves ref. Empty refs stay empty, URLs pass through, and keys are
// returned unchanged when no bucket is configured.
func (r *Resolver) URL(ctx context.Context, ref string) (string, error) {
	if ref == "" || isURL(ref) || !r.Enabled() {
		return ref, nil
	}

	pc, err := r.client(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		r.log.Warn(ctx, "presign get failed", "key", ref, "error", err)
		return "", err
	}

	return req.URL, nil
}

// UploadURL reserves a new key and returns a presigned PUT URL for it.
func (r *Resolver) UploadURL(ctx context.Context) (key, url string, err error) {
	if !r.Enabled() {
		return "", "", ErrDisabled
	}

	pc, err := r.client(ctx)
	if err != nil {
		return "", "", err
	}

	key = NewKey(time.Now())
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}
