// Package storage archives uploaded spreadsheets in MinIO so a failed
// import can be inspected after the fact.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	platformconfig "invite_portal_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver stores raw upload bytes and returns the object key.
type Archiver interface {
	ArchiveUpload(ctx context.Context, tenantID uuid.UUID, fileName, contentType string, data []byte) (string, error)
}

// MinIOArchiver implements Archiver against a MinIO bucket.
type MinIOArchiver struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchiver creates the archiver and verifies the bucket exists.
func NewMinIOArchiver(ctx context.Context, cfg platformconfig.StorageConfig) (*MinIOArchiver, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	a := &MinIOArchiver{
		client: client,
		bucket: cfg.GetMinioBucketUploadArchive(),
	}
	if err := a.ensureBucketExists(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *MinIOArchiver) ensureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// ArchiveUpload stores the raw spreadsheet under a tenant-scoped, dated key.
func (a *MinIOArchiver) ArchiveUpload(ctx context.Context, tenantID uuid.UUID, fileName, contentType string, data []byte) (string, error) {
	ext := path.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	uniqueFileName := fmt.Sprintf("%s_%s%s", baseName, uuid.New().String()[:8], ext)
	fileKey := filepath.ToSlash(filepath.Join(
		tenantID.String(),
		time.Now().UTC().Format("2006/01/02"),
		uniqueFileName,
	))

	_, err := a.client.PutObject(ctx, a.bucket, fileKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive upload %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// NoopArchiver is used when MinIO is not configured.
type NoopArchiver struct{}

// ArchiveUpload discards the upload.
func (NoopArchiver) ArchiveUpload(_ context.Context, _ uuid.UUID, _, _ string, _ []byte) (string, error) {
	return "", nil
}
