package server

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/http/handlers"
)

type RouterConfig struct {
	Mode string

	CORS       gin.HandlerFunc
	RequestLog gin.HandlerFunc
	Auth       gin.HandlerFunc

	Health  *handlers.HealthHandler
	AuthH   *handlers.AuthHandler
	Drafts  *handlers.DraftHandler
	Jobs    *handlers.JobHandler
	Courses *handlers.CourseHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.RequestLog != nil {
		r.Use(cfg.RequestLog)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}

	r.GET("/healthz", cfg.Health.Check)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", cfg.AuthH.Register)
			auth.POST("/login", cfg.AuthH.Login)
		}

		protected := api.Group("")
		protected.Use(cfg.Auth)
		{
			drafts := protected.Group("/drafts")
			{
				drafts.POST("/initialize", cfg.Drafts.Initialize)
				drafts.GET("", cfg.Drafts.List)
				drafts.GET("/:id", cfg.Drafts.Get)
				drafts.PATCH("/:id", cfg.Drafts.Update)
				drafts.POST("/:id/outline", cfg.Drafts.GenerateOutline)
				drafts.POST("/:id/module", cfg.Drafts.GenerateModule)
				drafts.POST("/:id/lesson", cfg.Drafts.GenerateLesson)
				drafts.POST("/:id/assessments", cfg.Drafts.GenerateAssessments)
				drafts.GET("/:id/task-status/:taskID", cfg.Drafts.TaskStatus)
				drafts.POST("/:id/finalize", cfg.Drafts.Finalize)
			}
			protected.GET("/jobs/:id", cfg.Jobs.Get)
			protected.GET("/courses/:id", cfg.Courses.Get)
		}
	}
	return r
}
