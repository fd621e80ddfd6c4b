package bootstrap

import (
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/routelens/routelens-backend/config"
	httpapi "github.com/routelens/routelens-backend/internal/api/http"
	"github.com/routelens/routelens-backend/internal/api/http/routes"
	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	consrepo "github.com/routelens/routelens-backend/internal/api_consistency/repository"
	exrepo "github.com/routelens/routelens-backend/internal/artifact_exchange/repository"
	exservice "github.com/routelens/routelens-backend/internal/artifact_exchange/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Env         string

	DB         *pgxpool.Pool
	Redis      *redis.Client
	AuthClient *fbauth.Client

	Reports   *consrepo.ReportRepository // nil disables report storage routes
	Exchange  *exservice.Exchange        // nil disables exchange routes
	Artifacts *exrepo.ArtifactRepository

	Consistency config.ConsistencyConfig
	Classify    classify.Config
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	SetGinMode(dep.Env)

	r := gin.Default()
	r.Use(corsMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	routes.RegisterV1(r, routes.V1Deps{
		DB:          dep.DB,
		AuthClient:  dep.AuthClient,
		Reports:     dep.Reports,
		Exchange:    dep.Exchange,
		Artifacts:   dep.Artifacts,
		Consistency: dep.Consistency,
		Classify:    dep.Classify,
	})

	return r
}

func SetGinMode(env string) {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization", "X-API-Key",
			"X-Request-Id", "X-User-Id", "X-User-Email", "X-User-Name", "X-User-Photo",
		},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	})
}
