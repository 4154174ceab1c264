package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/priceradar/pricesearch-engine/src/browserpool"
	"github.com/priceradar/pricesearch-engine/src/budget"
	"github.com/priceradar/pricesearch-engine/src/cacheadapter"
	"github.com/priceradar/pricesearch-engine/src/config"
	"github.com/priceradar/pricesearch-engine/src/controllers"
	"github.com/priceradar/pricesearch-engine/src/database"
	"github.com/priceradar/pricesearch-engine/src/failurelog"
	"github.com/priceradar/pricesearch-engine/src/fastpath"
	"github.com/priceradar/pricesearch-engine/src/logging"
	"github.com/priceradar/pricesearch-engine/src/metrics"
	"github.com/priceradar/pricesearch-engine/src/normalizer"
	"github.com/priceradar/pricesearch-engine/src/orchestrator"
	"github.com/priceradar/pricesearch-engine/src/resources"
	"github.com/priceradar/pricesearch-engine/src/siteadapter"
	"github.com/priceradar/pricesearch-engine/src/slowpath"
	"github.com/priceradar/pricesearch-engine/src/validationgate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		Service:    "pricesearch-engine",
		OutputPath: cfg.Logging.OutputPath,
		Format:     cfg.Logging.Format,
	})
	defer logger.Sync()

	m := metrics.New()

	res, err := resources.Load(cfg.Resources.Dir)
	if err != nil {
		log.Fatalf("failed to load resource data: %v", err)
	}

	dbConfig := database.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		DBName:         cfg.Database.DBName,
		SSLMode:        cfg.Database.SSLMode,
		TimeZone:       cfg.Database.TimeZone,
		MigrationsPath: cfg.Database.MigrationsPath,
	}

	db, err := database.Connect(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Warn("database unavailable, starting in degraded mode")
		db = nil
	} else if err := db.Migrate(dbConfig); err != nil {
		logger.WithError(err).Warn("database migration failed, starting in degraded mode")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, starting without shared cache")
		redisClient = nil
	}
	pingCancel()

	cache := cacheadapter.New(redisClient, logger, m)

	var browserPool *browserpool.Pool
	if cfg.Features.SlowPathEnabled {
		browserPool, err = browserpool.New(browserpool.DefaultConfig(), logger)
		if err != nil {
			logger.WithError(err).Warn("browser pool unavailable, disabling slow path")
			browserPool = nil
		}
	}

	adapter := siteadapter.NewStaticSiteAdapter(
		cfg.Aggregator.BaseURL, cfg.Aggregator.UserAgent,
		cfg.Aggregator.ListPath, cfg.Aggregator.DetailPath, cfg.Aggregator.RetryCount,
	)
	fastPathExec := fastpath.New(adapter, res, cfg.Aggregator.BaseURL)

	var slowPathExec *slowpath.Executor
	if browserPool != nil {
		slowPathExec = slowpath.New(browserPool, res, cfg.Aggregator.BaseURL,
			cfg.Aggregator.ListPath, cfg.Aggregator.DetailPath, logger)
	}

	var gormDB *gorm.DB
	if db != nil {
		gormDB = db.Gorm
	}
	recorder := failurelog.New(gormDB, logger, m)

	budgetCfg := budget.DefaultConfig()
	budgetCfg.Total = cfg.Budget.Total()
	budgetCfg.Cache = cfg.Budget.Cache()
	budgetCfg.FastPath = cfg.Budget.FastPath()
	budgetCfg.SlowPath = cfg.Budget.SlowPath()
	budgetCfg.MinRemaining = cfg.Budget.MinRemaining()
	budgetCfg.BroadQueryFastPath = cfg.Budget.BroadQueryFastPath()

	engine := orchestrator.New(orchestrator.Deps{
		BudgetCfg:       budgetCfg,
		Normalizer:      normalizer.New(res),
		Gate:            validationgate.New(res),
		Cache:           cache,
		FastPath:        fastPathExec,
		SlowPath:        slowPathExec,
		Recorder:        recorder,
		Log:             logger,
		Metrics:         m,
		Origin:          cfg.Aggregator.BaseURL,
		SlowPathEnabled: cfg.Features.SlowPathEnabled && slowPathExec != nil,
	})

	searchController := controllers.NewSearchController(engine)
	healthController := controllers.NewHealthController(cache, db, browserPool)
	analyticsController := controllers.NewAnalyticsController(recorder, cache, m, cfg.Aggregator.BaseURL)
	var configController *controllers.ConfigController
	if db != nil {
		configController = controllers.NewConfigController(db.Gorm)
	}

	server := setupServer(cfg, searchController, healthController, analyticsController, configController)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Sugar().Infof("starting pricesearch-engine on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-quit
	logger.Info("shutting down pricesearch-engine")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	if browserPool != nil {
		browserPool.Shutdown(10 * time.Second)
	}
	recorder.Shutdown()
	if db != nil {
		if err := db.Close(); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}

	logger.Info("pricesearch-engine stopped")
}

func setupServer(
	cfg *config.Config,
	search *controllers.SearchController,
	health *controllers.HealthController,
	analytics *controllers.AnalyticsController,
	cfgCtl *controllers.ConfigController,
) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	v1 := router.Group("/api/v1")
	{
		price := v1.Group("/price")
		{
			price.POST("/search", search.Search)
		}

		v1.GET("/health", health.Health)

		analyticsGroup := v1.Group("/analytics")
		{
			analyticsGroup.GET("/dashboard", analytics.Dashboard)
			analyticsGroup.GET("/common-failures", analytics.CommonFailures)
			analyticsGroup.GET("/improvements", analytics.Improvements)
			analyticsGroup.GET("/export", analytics.Export)
			analyticsGroup.POST("/resolve/:id", analytics.Resolve)
			analyticsGroup.GET("/stream", analytics.Stream)
		}

		if cfgCtl != nil {
			configGroup := v1.Group("/config")
			{
				configGroup.GET("/aggregator", cfgCtl.GetConfig)
				configGroup.PUT("/aggregator", cfgCtl.UpdateConfig)
			}
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", health.Health)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}
}
