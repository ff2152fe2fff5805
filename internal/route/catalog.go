package route

import (
	"net/http"

	"github.com/SeakMengs/QRCatalog/internal/controller"
	"github.com/gin-gonic/gin"
)

func V1_Catalogs(r *gin.RouterGroup, catalogController *controller.CatalogController) {
	v1 := r.Group("/v1/catalogs")
	{
		v1.POST("", catalogController.Generate)
	}
}

// ProductPages mounts the stand-in product pages used by the demo.
func ProductPages(r *gin.Engine, productPageController *controller.ProductPageController) {
	r.GET("/p/:id", productPageController.Show)
}

// Bodies above maxMB megabytes fail while the form is parsed.
func limitUploadSize(maxMB int) gin.HandlerFunc {
	limit := int64(maxMB) << 20
	return func(ctx *gin.Context) {
		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)
		}
		ctx.Next()
	}
}
