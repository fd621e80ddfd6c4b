package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/check-raw", h.CheckRaw)
	rg.POST("/check", h.CheckUpload)
	rg.POST("/graph.dot", h.GraphDOT)

	rg.GET("/reports/:id", h.GetReport)
	rg.GET("/projects/:project/reports", h.ListReports)
	rg.GET("/projects/:project/reports/latest", h.LatestReport)

	rg.GET("/metrics", h.Metrics)
}
