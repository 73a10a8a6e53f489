package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/handler"
	"github.com/noah-isme/hostel-api/internal/middleware"
	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/internal/service"
	"github.com/noah-isme/hostel-api/pkg/config"
	"github.com/noah-isme/hostel-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hostel-api/pkg/middleware/cors"
	"github.com/noah-isme/hostel-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/hostel-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth       *handler.AuthHandler
	Students   *handler.StudentHandler
	Rooms      *handler.RoomHandler
	Fees       *handler.FeeHandler
	Attendance *handler.AttendanceHandler
	Reports    *handler.ReportHandler
	Dashboard  *handler.DashboardHandler
	Health     *handler.HealthHandler
}

// Options configures the engine.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Auth     *service.AuthService
	Metrics  *service.MetricsService
	Handlers Handlers
}

// New builds the gin engine with the full route table.
func New(opts Options) *gin.Engine {
	cfg := opts.Config
	logr := opts.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	r.Use(middleware.WithResponseMeta())

	h := opts.Handlers
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	loginLimiter := ratelimit.NewTokenBucket(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginRatePerMinute)
	auth := api.Group("/auth")
	auth.POST("/login", loginLimiter.Middleware(), h.Auth.Login)
	auth.GET("/session", h.Auth.Session)

	// signed links carry their own authorisation
	api.GET("/exports/:token", h.Reports.DownloadExport)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Auth))
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/me", h.Auth.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := middleware.RBAC(string(models.RoleAdmin), middleware.Self)

	secured.GET("/dashboard", adminOnly, h.Dashboard.Stats)

	students := secured.Group("/students")
	students.GET("", adminOnly, h.Students.List)
	students.POST("", adminOnly, h.Students.Create)
	students.GET("/:id", adminOrSelf, h.Students.Get)
	students.PUT("/:id", adminOnly, h.Students.Update)
	students.DELETE("/:id", adminOnly, h.Students.Delete)
	students.POST("/:id/picture", adminOrSelf, h.Students.UploadPicture)
	students.DELETE("/:id/room", adminOnly, h.Rooms.Deallocate)

	rooms := secured.Group("/rooms", adminOnly)
	rooms.GET("", h.Rooms.List)
	rooms.GET("/:id", h.Rooms.Get)
	rooms.POST("/:id/occupants", h.Rooms.Allocate)

	fees := secured.Group("/fees", adminOnly)
	fees.GET("", h.Fees.List)
	fees.PATCH("/:id/status", h.Fees.UpdateStatus)

	attendance := secured.Group("/attendance", adminOnly)
	attendance.GET("/daily", h.Attendance.Daily)
	attendance.GET("/history", h.Attendance.History)
	attendance.POST("", h.Attendance.Mark)
	attendance.POST("/bulk", h.Attendance.MarkBulk)

	reports := secured.Group("/reports", adminOnly)
	reports.GET("/:kind", h.Reports.Download)
	reports.POST("/:kind/exports", h.Reports.CreateExport)

	return r
}
