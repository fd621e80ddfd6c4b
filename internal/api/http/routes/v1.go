package routes

import (
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/routelens/routelens-backend/config"
	"github.com/routelens/routelens-backend/internal/api/http/middleware"
	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	conshttp "github.com/routelens/routelens-backend/internal/api_consistency/http"
	consrepo "github.com/routelens/routelens-backend/internal/api_consistency/repository"
	exhttp "github.com/routelens/routelens-backend/internal/artifact_exchange/http"
	exrepo "github.com/routelens/routelens-backend/internal/artifact_exchange/repository"
	exservice "github.com/routelens/routelens-backend/internal/artifact_exchange/service"
	"github.com/routelens/routelens-backend/internal/auth"
	authhttp "github.com/routelens/routelens-backend/internal/auth/http"
	authmw "github.com/routelens/routelens-backend/internal/auth/middleware"
	"github.com/routelens/routelens-backend/internal/projects"
	"github.com/routelens/routelens-backend/internal/users"
)

type V1Deps struct {
	DB         *pgxpool.Pool
	AuthClient *fbauth.Client

	Reports   *consrepo.ReportRepository
	Exchange  *exservice.Exchange
	Artifacts *exrepo.ArtifactRepository

	Consistency config.ConsistencyConfig
	Classify    classify.Config
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")
	api.Use(middleware.RequestIDMiddleware())

	// Scanner facing routes carry the shared API key instead of a user
	// token, so the exchange group is registered before the user chain.
	if dep.Exchange != nil {
		exHandler := exhttp.NewHandler(dep.Exchange, dep.Artifacts, dep.Consistency.APIKey)
		exHandler.Register(api.Group("/exchange"))
	}

	if dep.AuthClient != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.AuthClient))
	}

	userRepo := users.NewRepo(dep.DB)
	api.Use(auth.WithUser(userRepo))

	authHandler := authhttp.New(userRepo)
	authHandler.Register(api.Group("/auth"))

	projectRepo := projects.NewRepo(dep.DB)
	projects.Register(api.Group("/projects"), projectRepo)

	consHandler := conshttp.NewHandler(
		dep.Reports,
		dep.Classify,
		dep.Consistency.OutDir,
		dep.Consistency.IncomingDir,
		dep.Consistency.DotBin,
	)
	consHandler.Register(api.Group("/consistency"))
}
