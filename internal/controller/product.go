package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/SeakMengs/QRCatalog/internal/util"
	"github.com/SeakMengs/QRCatalog/pkg/qrcatalog"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

// ProductPageController serves stand-in product pages in the layout the
// scraper reads: the code in the first table row and the QR as <use> modules.
type ProductPageController struct {
	Batch string
	Names []string
}

func NewProductPageController(batch string, names []string) *ProductPageController {
	return &ProductPageController{Batch: batch, Names: names}
}

// ProductName returns the name of the zero based product i.
func (pc ProductPageController) ProductName(i int) string {
	if len(pc.Names) == 0 {
		return fmt.Sprintf("Producto %d", i+1)
	}
	return pc.Names[i%len(pc.Names)]
}

// Code of product n is ITAU-<batch>-<n>.
func (pc ProductPageController) Code(n int) string {
	return fmt.Sprintf("ITAU-%s-%05d", pc.Batch, n)
}

func (pc ProductPageController) Show(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		util.ResponseFailed(ctx, http.StatusNotFound, "Product not found", util.FieldErrors("id", "id must be a positive number"), nil)
		return
	}

	// The QR points back at the page itself
	link := fmt.Sprintf("http://%s%s", ctx.Request.Host, ctx.Request.URL.Path)
	modules, err := qrcatalog.ModulesFromContent(link, qrcode.Medium)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to encode QR code", err, nil)
		return
	}

	page := qrcatalog.BuildProductPage(pc.Code(id), pc.ProductName(id-1), modules)
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}
