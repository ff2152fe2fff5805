package controller

import (
	"github.com/SeakMengs/QRCatalog/internal/util"
	"github.com/gin-gonic/gin"
)

type IndexController struct {
	*baseController
}

func (ic IndexController) Index(ctx *gin.Context) {
	util.ResponseSuccess(ctx, gin.H{
		"name":    util.GetAppName(),
		"version": util.Version,
	})
}
