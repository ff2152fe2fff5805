package controller

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	filestorage "github.com/SeakMengs/QRCatalog/internal/file_storage"
	"github.com/SeakMengs/QRCatalog/internal/util"
	"github.com/SeakMengs/QRCatalog/pkg/qrcatalog"
	"github.com/gin-gonic/gin"
)

const (
	HeaderCatalogRows   = "X-Catalog-Rows"
	HeaderCatalogFailed = "X-Catalog-Failed-Rows"
	HeaderCatalogPages  = "X-Catalog-Pages"
	HeaderCatalogURL    = "X-Catalog-Url"
)

type CatalogController struct {
	*baseController
}

// Generate builds a catalog from the spreadsheet uploaded as the multipart
// "file" field and answers with the pdf itself. Every request works in its own
// temporary directory, so concurrent uploads never share labels.
func (cc CatalogController) Generate(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "No spreadsheet was sent", util.FieldErrors("file", "file is required"), nil)
		return
	}

	if err := qrcatalog.CheckSheetType(file.Filename); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Unsupported spreadsheet", util.FieldErrors("file", err.Error()), nil)
		return
	}

	tempDir, err := os.MkdirTemp("", "qrcatalog_request_*")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Error creating temporary directory", err, nil)
		return
	}
	defer os.RemoveAll(tempDir)

	sheetPath := filepath.Join(tempDir, "sheet"+strings.ToLower(filepath.Ext(file.Filename)))
	if err := ctx.SaveUploadedFile(file, sheetPath); err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Error saving spreadsheet", err, nil)
		return
	}

	cfg := cc.app.Config
	libCfg := cfg.LibraryConfig()
	libCfg.LabelDir = filepath.Join(tempDir, "labels")
	libCfg.OutputDir = filepath.Join(tempDir, "out")
	libCfg.TmpDir = filepath.Join(tempDir, "tmp")

	// The response carries only the pdf
	settings := cfg.Settings()
	settings.ZipLabels = false
	settings.PreviewPath = ""

	cg := qrcatalog.NewCatalogGenerator(sheetPath, libCfg, settings, cc.app.Fetcher, cc.app.Logger)
	if cc.app.S3 != nil {
		cg.Uploader = &filestorage.MinioUploader{S3: cc.app.S3, Bucket: cfg.Minio.BUCKET, RunID: cg.ID}
	}

	cc.app.Logger.Debugf("Catalog request %s: received %s (%d bytes)", cg.ID, file.Filename, file.Size)

	res, err := cg.Generate(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, qrcatalog.ErrReadSheet) {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid spreadsheet", util.FieldErrors("file", err.Error()), nil)
			return
		}
		cc.app.Logger.Errorf("Catalog request %s failed: %v", cg.ID, err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to generate catalog", err, nil)
		return
	}

	for _, f := range res.Failed {
		cc.app.Logger.Warnf("Catalog request %s: row %d (%s) failed: %v", cg.ID, f.Index+1, f.Name, f.Err)
	}

	data, err := os.ReadFile(res.CatalogPath)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Error reading catalog", err, nil)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(res.CatalogPath)))
	ctx.Header(HeaderCatalogRows, strconv.Itoa(res.Rows))
	ctx.Header(HeaderCatalogFailed, strconv.Itoa(len(res.Failed)))
	ctx.Header(HeaderCatalogPages, strconv.Itoa(res.Pages))
	if res.UploadedURL != "" {
		ctx.Header(HeaderCatalogURL, res.UploadedURL)
	}
	ctx.Data(http.StatusOK, "application/pdf", data)
}
