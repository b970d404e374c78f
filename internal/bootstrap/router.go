package bootstrap

import (
	httpapi "github.com/issuetracker/issue-tracker/internal/api/http"
	"github.com/issuetracker/issue-tracker/internal/api/http/middleware"
	issueshttp "github.com/issuetracker/issue-tracker/internal/issues/http"
	"github.com/issuetracker/issue-tracker/internal/issues/repository"
	"github.com/issuetracker/issue-tracker/internal/issues/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	Store       repository.Store
	Logger      *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	log := dep.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(log))
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store)
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	issueService := service.NewIssueService(dep.Store)
	issuesHandler := issueshttp.New(issueService, log)
	issuesHandler.Register(r.Group("/api/issues"))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = append(cfg.AllowHeaders, middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
