package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/viaticos-app/viaticos-api/api/swagger"
	"github.com/viaticos-app/viaticos-api/internal/handler"
	"github.com/viaticos-app/viaticos-api/internal/middleware"
	"github.com/viaticos-app/viaticos-api/internal/models"
	"github.com/viaticos-app/viaticos-api/internal/repository"
	"github.com/viaticos-app/viaticos-api/internal/service"
	"github.com/viaticos-app/viaticos-api/pkg/cache"
	"github.com/viaticos-app/viaticos-api/pkg/config"
	"github.com/viaticos-app/viaticos-api/pkg/database"
	"github.com/viaticos-app/viaticos-api/pkg/logger"
	corsmiddleware "github.com/viaticos-app/viaticos-api/pkg/middleware/cors"
	reqidmiddleware "github.com/viaticos-app/viaticos-api/pkg/middleware/requestid"
)

// @title Viaticos API
// @version 1.0.0
// @description Travel expense reporting and reimbursement approval service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	countryRepo := repository.NewCountryRepository(db)
	currencyRepo := repository.NewCurrencyRepository(db)
	taxRepo := repository.NewTaxRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ExpensesTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "viaticos-api",
		Audience:           []string{"viaticos"},
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	reportSvc := service.NewReportService(reportRepo, userRepo, validate, logr)
	expenseSvc := service.NewExpenseService(expenseRepo, reportRepo, cacheSvc, cfg.Cache.ExpensesTTL, validate, logr)
	approvalSvc := service.NewApprovalService(reportRepo, expenseRepo, userRepo, cacheSvc, logr)
	catalogSvc := service.NewCatalogService(countryRepo, currencyRepo, taxRepo, validate, logr)
	exportSvc := service.NewExportService(reportSvc, expenseSvc, logr, nil, nil)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc)
	expenseHandler := handler.NewExpenseHandler(expenseSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	}

	reports := api.Group("/reports", middleware.JWT(authSvc))
	{
		reports.GET("", reportHandler.List)
		reports.GET("/:id", reportHandler.Get)
		reports.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee), reportHandler.Create)
		reports.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee), reportHandler.Update)
		reports.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee), reportHandler.Delete)
		if cfg.Exports.Enabled {
			reports.GET("/:id/export", reportHandler.Export)
		}
	}

	expenses := api.Group("/expenses", middleware.JWT(authSvc))
	{
		expenses.GET("", expenseHandler.List)
		expenses.GET("/:id", expenseHandler.Get)
		expenses.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee), expenseHandler.Create)
		expenses.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee), expenseHandler.Update)
		expenses.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee), expenseHandler.Delete)
	}

	approvals := api.Group("/approvals", middleware.JWT(authSvc))
	{
		approvals.POST("/reports/:id/submit", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee), approvalHandler.Submit)
		approvals.POST("/reports/:id/approve", middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor, models.RoleTreasury), approvalHandler.Review)
		approvals.POST("/reports/:id/resume", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee, models.RoleAccounting), approvalHandler.Resume)
		approvals.POST("/reports/:id/reconcile", middleware.RequireRoles(models.RoleAdmin, models.RoleEmployee), approvalHandler.Reconcile)
		approvals.POST("/expenses/:id/approve", middleware.RequireRoles(models.RoleAccounting), approvalHandler.ApproveExpense)
		approvals.POST("/expenses/:id/reject", middleware.RequireRoles(models.RoleAccounting), approvalHandler.RejectExpense)
	}

	catalog := api.Group("", middleware.JWT(authSvc))
	{
		catalog.GET("/countries", catalogHandler.ListCountries)
		catalog.PUT("/countries", middleware.RequireRoles(models.RoleAdmin), catalogHandler.UpsertCountry)
		catalog.DELETE("/countries/:code", middleware.RequireRoles(models.RoleAdmin), catalogHandler.DeactivateCountry)
		catalog.GET("/currencies", catalogHandler.ListCurrencies)
		catalog.PUT("/currencies", middleware.RequireRoles(models.RoleAdmin), catalogHandler.UpsertCurrency)
		catalog.DELETE("/currencies/:code", middleware.RequireRoles(models.RoleAdmin), catalogHandler.DeactivateCurrency)
		catalog.GET("/taxes", catalogHandler.ListTaxes)
		catalog.POST("/taxes", middleware.RequireRoles(models.RoleAdmin), catalogHandler.CreateTax)
		catalog.PUT("/taxes/:id", middleware.RequireRoles(models.RoleAdmin), catalogHandler.UpdateTax)
		catalog.DELETE("/taxes/:id", middleware.RequireRoles(models.RoleAdmin), catalogHandler.DeleteTax)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
