package origin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	err     error
	keys    []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	modified := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &s3.GetObjectOutput{
		Body:         io.NopCloser(bytes.NewReader([]byte(body))),
		ETag:         aws.String(`"abc"`),
		LastModified: &modified,
	}, nil
}

func TestObjectKey(t *testing.T) {
	tests := map[string]string{
		"":               IndexObject,
		"/":              IndexObject,
		"/app.js":        "app.js",
		"/icons/":        "icons/index.html",
		"/icons/192.png": "icons/192.png",
	}
	for in, want := range tests {
		assert.Equal(t, want, ObjectKey(in), in)
	}
}

func TestS3_Fetch(t *testing.T) {
	api := &fakeS3{objects: map[string]string{
		"index.html": "<html>",
		"app.js":     "console.log(1)",
	}}
	s := NewS3(api, "site")

	u, _ := url.Parse("https://inspect.example.com/")
	got, err := s.Fetch(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "/", got.Key)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "<html>", string(got.Body))
	assert.Equal(t, "text/html; charset=utf-8", got.Header.Get("Content-Type"))
	assert.Equal(t, `"abc"`, got.Header.Get("ETag"))
	assert.Equal(t, "Sat, 01 Mar 2025 10:00:00 GMT", got.Header.Get("Last-Modified"))

	u, _ = url.Parse("https://inspect.example.com/missing.css")
	got, err = s.Fetch(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, got.Status)

	assert.Equal(t, []string{"index.html", "missing.css"}, api.keys)
}

func TestS3_FetchError(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewS3(&fakeS3{err: boom}, "site")

	u, _ := url.Parse("https://inspect.example.com/app.js")
	_, err := s.Fetch(context.Background(), u)
	require.ErrorIs(t, err, boom)
}

func TestNewS3FromConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-north-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	s, err := NewS3FromConfig(context.Background(), S3Config{
		Bucket:       "site",
		Region:       "eu-north-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
	})
	require.NoError(t, err)
	assert.Equal(t, "site", s.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3FromConfig_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	boom := errors.New("bad profile")
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, boom
	}

	_, err := NewS3FromConfig(context.Background(), S3Config{Region: "us-east-1"})
	require.ErrorIs(t, err, boom)
}
