package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/webforge-labs/webforge-backend/internal/api/http"
	"github.com/webforge-labs/webforge-backend/internal/api/http/middleware"
	"github.com/webforge-labs/webforge-backend/internal/auth"
	"github.com/webforge-labs/webforge-backend/internal/files"
	"github.com/webforge-labs/webforge-backend/internal/logging"
	projecthttp "github.com/webforge-labs/webforge-backend/internal/projects/http"
	"github.com/webforge-labs/webforge-backend/internal/projects/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	Log            *logging.Logger
	DB             *pgxpool.Pool
	Redis          *redis.Client
	Gate           *auth.Gate
	Lifecycle      *service.Lifecycle
	Files          *files.Handler
	RateLimiter    *middleware.RateLimiter
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = dep.AllowedOrigins
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders,
		"Authorization", "X-Session-Token", "X-Request-Id")
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestID(dep.Log))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api")

	auth.Register(api.Group("/auth"), dep.Gate)

	protected := api.Group("")
	protected.Use(auth.RequireSession(dep.Gate))
	if dep.RateLimiter != nil {
		protected.Use(dep.RateLimiter.Middleware())
	}

	projecthttp.Register(protected.Group("/projects"), dep.Lifecycle)
	dep.Files.Register(protected.Group("/files"))

	return r
}
