package filestorage

import (
	"context"
	"fmt"

	"github.com/SeakMengs/QRCatalog/internal/config"
	"github.com/SeakMengs/QRCatalog/internal/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: "us-east-1",
	})
}

// MinioUploader stores finished catalogs under catalogs/<run id>/ in one bucket.
type MinioUploader struct {
	S3     *minio.Client
	Bucket string
	RunID  string
}

func NewMinioUploader(cfg *config.MinioConfig, runID string) (*MinioUploader, error) {
	s3, err := NewMinioClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioUploader{
		S3:     s3,
		Bucket: cfg.BUCKET,
		RunID:  runID,
	}, nil
}

// UploadFile returns the s3:// location of the uploaded object.
func (u *MinioUploader) UploadFile(ctx context.Context, path string) (string, error) {
	info, err := util.UploadFileToS3ByPath(ctx, path, &util.FileUploadOptions{
		DirectoryPath: util.GetCatalogDirectoryPath(u.RunID),
		Bucket:        u.Bucket,
		S3:            u.S3,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key), nil
}
