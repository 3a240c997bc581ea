package http

import "github.com/gin-gonic/gin"

// Register registers the auth routes. requireAuth guards /auth/verify.
func (h *Handler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.POST("/auth/signup", h.Signup)
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/verify", requireAuth, h.Verify)
}
