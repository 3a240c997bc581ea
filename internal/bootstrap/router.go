package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpapi "github.com/erdsync/erd-sync/internal/api/http"
	reqmw "github.com/erdsync/erd-sync/internal/api/http/middleware"
	authhttp "github.com/erdsync/erd-sync/internal/auth/http"
	authmw "github.com/erdsync/erd-sync/internal/auth/middleware"
	dochttp "github.com/erdsync/erd-sync/internal/documents/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	Log         zerolog.Logger

	DB    *pgxpool.Pool
	Redis *redis.Client

	Auth      authhttp.AuthService
	Tokens    authmw.TokenVerifier
	Documents dochttp.DocumentService

	// PatchLimiter may be nil to disable PATCH throttling.
	PatchLimiter *dochttp.PatchLimiter
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqmw.RequestID(dep.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", reqmw.HeaderRequestID},
		ExposeHeaders:    []string{reqmw.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	requireAuth := authmw.RequireAuth(dep.Tokens)

	authhttp.New(dep.Auth).Register(r.Group(""), requireAuth)

	api := r.Group("")
	api.Use(requireAuth)
	dochttp.New(dep.Documents, dep.PatchLimiter, dep.Log).Register(api)

	return r
}
