package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type BucketConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the base used by ResolveURL.
	PublicURL string
}

// Bucket stores content in an S3 compatible bucket under its ContentID, so a
// bucket mirrors the Arweave id space.
type Bucket struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewBucket(ctx context.Context, cfg BucketConfig) (*Bucket, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket: %w", err)
		}
	}

	public := cfg.PublicURL
	if public == "" {
		public = fmt.Sprintf("%s/%s", client.EndpointURL().String(), cfg.Bucket)
	}

	return &Bucket{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(public, "/") + "/",
	}, nil
}

func (b *Bucket) UploadContent(ctx context.Context, data []byte, contentType string, tags []Tag, opts ...UploadOption) (string, error) {
	cfg := applyOptions(opts)

	meta := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Name == "Content-Type" {
			continue
		}
		meta[t.Name] = t.Value
	}

	id := ContentID(data)
	putOpts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	}
	if cfg.progress != nil {
		putOpts.Progress = &progressSink{total: int64(len(data)), fn: cfg.progress}
	}

	_, err := b.client.PutObject(ctx, b.bucket, id, bytes.NewReader(data), int64(len(data)), putOpts)
	if err != nil {
		return "", &UploadError{Status: minioStatus(err), Err: err}
	}
	return id, nil
}

func (b *Bucket) UploadMetadata(ctx context.Context, v any) (string, error) {
	return uploadMetadata(ctx, b, v)
}

func (b *Bucket) ResolveURL(id string) string {
	return b.publicURL + id
}

func (b *Bucket) FetchContent(ctx context.Context, id string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, &FetchError{ID: id, Status: minioStatus(err), Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, &FetchError{ID: id, Status: minioStatus(err), Err: err}
	}
	return data, nil
}

func minioStatus(err error) int {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" {
		return http.StatusNotFound
	}
	return resp.StatusCode
}

// progressSink is handed to minio, which reads from it as bytes are sent.
type progressSink struct {
	total int64
	sent  int64
	fn    ProgressFunc
}

func (p *progressSink) Read(b []byte) (int, error) {
	p.sent += int64(len(b))
	if p.total > 0 {
		p.fn(min(float64(p.sent)/float64(p.total), 1))
	}
	return len(b), nil
}
