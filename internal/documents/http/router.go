package http

import "github.com/gin-gonic/gin"

// Register registers the document routes. rg must already be behind auth.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/document", h.ListDocuments)
	rg.POST("/document/new", h.CreateDocument)
	rg.GET("/document/:id", h.GetDocument)
	rg.PUT("/document/:id", h.UpdateTitle)
	if h.limiter != nil {
		rg.PATCH("/document/:id", h.limiter.Middleware(), h.PatchDocument)
	} else {
		rg.PATCH("/document/:id", h.PatchDocument)
	}
	rg.POST("/document/:id/commit", h.Commit)
	rg.GET("/document/:id/versions", h.ListVersions)
	rg.POST("/document/:id/versions/:versionId/switch", h.SwitchVersion)
}
