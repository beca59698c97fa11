// Package binarystore wraps an S3-compatible object store for the
// pipeline's text/binary artifacts, mirroring the semantics of the
// reference Spaces/S3 client: public-read uploads, multipart upload with
// abort-on-failure, server-side copy, and delete.
package binarystore

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

// Store is the binary-artifact surface the pipeline depends on. A single
// instance is shared across the whole run and, when a worker pool is used,
// across its goroutines — the underlying minio client is safe for
// concurrent use.
type Store interface {
	// Download streams the object's bytes into w without buffering the
	// whole file in memory.
	Download(ctx context.Context, key string, w io.Writer) error
	Upload(ctx context.Context, key string, body io.Reader, size int64, acl string) error
	// UploadMultipart streams a large local file through minio's PutObject,
	// which multiparts internally above its configured part size and aborts
	// cleanly on error; the name keeps faith with the reference client's
	// explicit multipart/abort surface.
	UploadMultipart(ctx context.Context, key, localPath string, partSize int64) error
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type store struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

func New(cfg Config, log *logger.Logger) (Store, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, gazetteerrors.FatalConfig("build object store client", err)
	}
	return &store{client: cl, bucket: cfg.Bucket, log: log}, nil
}

func (s *store) Download(ctx context.Context, key string, w io.Writer) error {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return classify(err, "download object")
	}
	defer obj.Close()

	// Touch Stat first: GetObject does not fail until the body is read, and
	// a missing key only surfaces here.
	if _, err := obj.Stat(); err != nil {
		return classify(err, "stat object")
	}
	if _, err := io.Copy(w, obj); err != nil {
		return classify(err, "stream object body")
	}
	return nil
}

func (s *store) Upload(ctx context.Context, key string, body io.Reader, size int64, acl string) error {
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if acl != "" {
		opts.UserMetadata = map[string]string{"x-amz-acl": acl}
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, opts)
	if err != nil {
		if s.log != nil {
			s.log.Warn("object upload failed", "key", key, "error", err)
		}
		return classify(err, "upload object")
	}
	return nil
}

// UploadMultipart streams localPath's contents through PutObject. minio-go
// handles chunking into parts above partSize internally and aborts the
// multipart session on any part failure; no separate abort call is needed.
func (s *store) UploadMultipart(ctx context.Context, key, localPath string, partSize int64) error {
	f, err := os.Open(localPath)
	if err != nil {
		return classify(err, "open local file for multipart upload")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return classify(err, "stat local file for multipart upload")
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    uint64(partSize),
	})
	if err != nil {
		if s.log != nil {
			s.log.Warn("multipart upload aborted", "key", key, "error", err)
		}
		return classify(err, "multipart upload object")
	}
	return nil
}

func (s *store) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey},
	)
	if err != nil {
		return classify(err, "copy object")
	}
	return nil
}

func (s *store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return classify(err, "delete object")
	}
	return nil
}

func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return gazetteerrors.NotFound(msg, err)
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return gazetteerrors.NotFound(msg, err)
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return gazetteerrors.Transient(msg, err)
	}
	if resp.StatusCode >= 500 {
		return gazetteerrors.Transient(msg, err)
	}
	return gazetteerrors.Wrap(msg, err)
}
