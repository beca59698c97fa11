package binarystore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

// TestStoreEmulatorCRUDLifecycle exercises the real minio client against a
// live S3-compatible endpoint (e.g. `minio server` or a DO Spaces bucket).
// It never runs unattended: set NB_RUN_MINIO_INTEGRATION=true plus the
// endpoint/credential vars to opt in.
func TestStoreEmulatorCRUDLifecycle(t *testing.T) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("NB_RUN_MINIO_INTEGRATION")), "true") {
		t.Skip("set NB_RUN_MINIO_INTEGRATION=true to run object store integration tests")
	}

	endpoint := strings.TrimSpace(os.Getenv("NB_MINIO_ENDPOINT"))
	if endpoint == "" {
		t.Skip("NB_MINIO_ENDPOINT not set")
	}
	bucket := fmt.Sprintf("nb-it-%d", time.Now().UnixNano())

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	s, err := New(Config{
		Endpoint:  endpoint,
		Region:    os.Getenv("NB_MINIO_REGION"),
		Bucket:    bucket,
		AccessKey: os.Getenv("NB_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("NB_MINIO_SECRET_KEY"),
		UseSSL:    strings.EqualFold(os.Getenv("NB_MINIO_USE_SSL"), "true"),
	}, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	key := "it/a.txt"

	if err := s.(*store).client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: os.Getenv("NB_MINIO_REGION")}); err != nil {
		t.Fatalf("MakeBucket: %v", err)
	}

	if err := s.Upload(ctx, key, strings.NewReader("alpha"), int64(len("alpha")), ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	var buf bytes.Buffer
	if err := s.Download(ctx, key, &buf); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if buf.String() != "alpha" {
		t.Fatalf("Download body = %q, want %q", buf.String(), "alpha")
	}

	if err := s.Copy(ctx, key, "it/b.txt"); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "it/b.txt"); err != nil {
		t.Fatalf("Delete copy: %v", err)
	}
}

func TestNew_BuildsClientForWellFormedConfig(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	if _, err := New(Config{Endpoint: "localhost:9000", Bucket: "gazettes", AccessKey: "k", SecretKey: "s"}, log); err != nil {
		t.Fatalf("New: %v", err)
	}
}
