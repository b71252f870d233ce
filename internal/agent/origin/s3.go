package origin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/manholepro/internal/agent/cache"
	"github.com/dmitrijs2005/manholepro/internal/netx"
)

// IndexObject is served for directory paths.
const IndexObject = "index.html"

// GetObjectAPI is the part of *s3.Client the fetcher needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config describes an S3-compatible bucket (AWS or MinIO).
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

var _ cache.Fetcher = (*S3)(nil)

// S3 fetches assets from a bucket, mapping the request path onto an object
// key. Missing objects become 404 assets.
type S3 struct {
	api    GetObjectAPI
	bucket string
	now    func() time.Time
}

func NewS3(api GetObjectAPI, bucket string) *S3 {
	return &S3{api: api, bucket: bucket, now: time.Now}
}

// NewS3FromConfig builds a client with static credentials. A custom endpoint
// switches to path-style addressing, which MinIO requires.
func NewS3FromConfig(ctx context.Context, c S3Config) (*S3, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3(client, c.Bucket), nil
}

// ObjectKey maps a URL path onto an object key.
func ObjectKey(p string) string {
	key := strings.TrimPrefix(p, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		key += IndexObject
	}
	return key
}

func (s *S3) Fetch(ctx context.Context, u *url.URL) (cache.Asset, error) {
	key := ObjectKey(u.Path)
	now := s.now()

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return cache.NewAsset(netx.CacheKey(u), http.StatusNotFound, http.Header{}, nil, now), nil
		}
		return cache.Asset{}, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return cache.Asset{}, fmt.Errorf("read object %s: %w", key, err)
	}

	h := http.Header{}
	ct := aws.ToString(out.ContentType)
	if ct == "" {
		ct = mime.TypeByExtension(path.Ext(key))
	}
	if ct != "" {
		h.Set("Content-Type", ct)
	}
	if out.ETag != nil {
		h.Set("ETag", *out.ETag)
	}
	if out.LastModified != nil {
		h.Set("Last-Modified", out.LastModified.UTC().Format(http.TimeFormat))
	}
	return cache.NewAsset(netx.CacheKey(u), http.StatusOK, h, body, now), nil
}
