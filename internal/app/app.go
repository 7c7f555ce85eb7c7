package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/db"
	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	"github.com/yungbote/coursecraft-backend/internal/generator"
	"github.com/yungbote/coursecraft-backend/internal/http/handlers"
	"github.com/yungbote/coursecraft-backend/internal/http/middleware"
	"github.com/yungbote/coursecraft-backend/internal/jobs/pipeline"
	jobrt "github.com/yungbote/coursecraft-backend/internal/jobs/runtime"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/server"
	"github.com/yungbote/coursecraft-backend/internal/services"
	"github.com/yungbote/coursecraft-backend/internal/temporalx"
	"github.com/yungbote/coursecraft-backend/internal/temporalx/temporalworker"
)

// App owns process-wide wiring: database, Temporal client, repos,
// services, handlers, router and the optional embedded worker.
type App struct {
	Log *logger.Logger
	Cfg *Config

	DB *gorm.DB
	TC temporalsdkclient.Client

	Users   repos.UserRepo
	Drafts  repos.DraftRepo
	Courses repos.CourseRepo
	JobRuns repos.JobRunRepo

	Registry *jobrt.Registry

	AuthSvc   services.AuthService
	JobSvc    services.JobService
	DraftSvc  services.DraftService
	CourseSvc services.CourseService

	Router *gin.Engine
	Worker *temporalworker.Runner
}

func New(log *logger.Logger) (*App, error) {
	cfg, err := LoadConfig(log)
	if err != nil {
		return nil, err
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, err
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		return nil, err
	}

	a := &App{Log: log, Cfg: cfg, DB: pg.DB(), TC: tc}
	a.wireRepos()
	if err := a.wireJobs(); err != nil {
		return nil, err
	}
	a.wireServices()
	a.wireRouter()
	if cfg.EmbeddedWorker {
		if err := a.wireWorker(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) wireRepos() {
	a.Users = repos.NewUserRepo(a.DB, a.Log)
	a.Drafts = repos.NewDraftRepo(a.DB, a.Log)
	a.Courses = repos.NewCourseRepo(a.DB, a.Log)
	a.JobRuns = repos.NewJobRunRepo(a.DB, a.Log)
}

func (a *App) wireJobs() error {
	gen := generator.NewStubGenerator(a.Log, a.Cfg.GeneratorDelay)
	reg, err := pipeline.BuildRegistry(a.Log, a.DB, a.Drafts, gen)
	if err != nil {
		return err
	}
	a.Registry = reg
	return nil
}

func (a *App) wireServices() {
	a.AuthSvc = services.NewAuthService(a.DB, a.Log, a.Users, a.Cfg.JWTSecret, a.Cfg.TokenTTL)
	a.JobSvc = services.NewJobService(a.DB, a.Log, a.JobRuns, a.TC)
	a.DraftSvc = services.NewDraftService(a.DB, a.Log, a.Drafts, a.Courses, a.JobRuns, a.JobSvc)
	a.CourseSvc = services.NewCourseService(a.DB, a.Log, a.Courses)
}

func (a *App) wireRouter() {
	a.Router = server.NewRouter(server.RouterConfig{
		Mode:       a.Cfg.Mode,
		CORS:       middleware.CORS(a.Log),
		RequestLog: middleware.RequestLog(a.Log),
		Auth:       middleware.RequireAuth(a.AuthSvc, a.Log),
		Health:     handlers.NewHealthHandler(a.DB),
		AuthH:      handlers.NewAuthHandler(a.Log, a.AuthSvc),
		Drafts:     handlers.NewDraftHandler(a.Log, a.DraftSvc),
		Jobs:       handlers.NewJobHandler(a.Log, a.JobSvc),
		Courses:    handlers.NewCourseHandler(a.Log, a.CourseSvc),
	})
}

func (a *App) wireWorker() error {
	if a.TC == nil {
		a.Log.Warn("EMBEDDED_WORKER requested but Temporal is not configured; worker disabled")
		return nil
	}
	w, err := temporalworker.NewRunner(a.Log, a.TC, a.DB, a.JobRuns, a.Drafts, a.Registry)
	if err != nil {
		return err
	}
	a.Worker = w
	return nil
}

// StartWorker brings the embedded worker up when configured.
func (a *App) StartWorker(ctx context.Context) error {
	if a.Worker == nil {
		return nil
	}
	return a.Worker.Start(ctx)
}

func (a *App) Close() {
	if a.Worker != nil {
		a.Worker.Stop()
	}
	if a.TC != nil {
		a.TC.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
