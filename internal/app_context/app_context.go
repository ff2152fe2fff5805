package appcontext

import (
	"github.com/SeakMengs/QRCatalog/internal/config"
	"github.com/SeakMengs/QRCatalog/pkg/qrcatalog"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Application contains core dependencies shared by the commands and the http handlers.
type Application struct {
	Config *config.Config

	Logger *zap.SugaredLogger

	// Fetcher downloads product pages, shared by every catalog run.
	Fetcher qrcatalog.PageFetcher

	// S3 is nil unless minio upload is enabled.
	S3 *minio.Client
}
