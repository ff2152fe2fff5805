package route

import (
	appcontext "github.com/SeakMengs/QRCatalog/internal/app_context"
	"github.com/SeakMengs/QRCatalog/internal/controller"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewEngine returns the gin engine with every catalog route mounted.
func NewEngine(app *appcontext.Application) *gin.Engine {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.MaxMultipartMemory = int64(app.Config.Server.MaxUploadMB) << 20

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	corsConfig.ExposeHeaders = []string{
		"Content-Disposition",
		controller.HeaderCatalogRows,
		controller.HeaderCatalogFailed,
		controller.HeaderCatalogPages,
		controller.HeaderCatalogURL,
	}
	r.Use(cors.New(corsConfig))
	r.Use(limitUploadSize(app.Config.Server.MaxUploadMB))

	_controller := controller.NewController(app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")
	V1_Catalogs(rApi, _controller.Catalog)

	return r
}
