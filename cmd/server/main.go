package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"day-planner/backend/internal/cache"
	"day-planner/backend/internal/config"
	"day-planner/backend/internal/handlers"
	"day-planner/backend/internal/middleware"
	"day-planner/backend/internal/monitoring"
	"day-planner/backend/internal/services"
	"day-planner/backend/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	recordStore := store.New(db)
	if err := recordStore.Migrate(); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	var remote cache.Cache
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(&cache.RedisConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err := redisCache.Health(); err != nil {
			log.Printf("redis unavailable, continuing with in-process cache only: %v", err)
		} else {
			remote = redisCache
		}
	}

	queryCache := cache.NewQueryCache(remote, &cache.QueryCacheConfig{
		ListTTL:   cfg.Cache.ListTTL,
		DetailTTL: cfg.Cache.DetailTTL,
	})
	listCache := cache.NewTieredCache(remote)

	taskQueries := services.NewTaskQueryService(recordStore, queryCache)
	coordinator := services.NewMutationCoordinator(recordStore, queryCache)
	timeBlocks := services.NewTimeBlockService(recordStore, listCache)
	categories := services.NewCategoryService(recordStore)

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if remote != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return remote.Health()
		})
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		})
	}

	router := buildRouter(cfg, limiter, taskQueries, coordinator, timeBlocks, categories)

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	if limiter != nil {
		limiter.Stop()
	}
	listCache.Close()
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Driver == "postgres" {
		return gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(cfg.Database.Name+".db"), &gorm.Config{})
}

func buildRouter(
	cfg *config.Config,
	limiter *middleware.RateLimiter,
	taskQueries *services.TaskQueryService,
	coordinator *services.MutationCoordinator,
	timeBlocks *services.TimeBlockService,
	categories *services.CategoryService,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.Default())
	router.Use(monitoring.MetricsMiddleware())
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	router.GET("/healthz", monitoring.HealthHandler)
	router.GET("/metrics", monitoring.MetricsHandler)

	taskHandler := handlers.NewTaskHandler(taskQueries, coordinator)
	blockHandler := handlers.NewTimeBlockHandler(timeBlocks)
	categoryHandler := handlers.NewCategoryHandler(categories)
	calendarHandler := handlers.NewCalendarHandler(taskQueries, timeBlocks)

	api := router.Group("/api/v1")
	api.Use(middleware.Identity(cfg.Identity.JWTSecret))
	{
		api.GET("/tasks", taskHandler.ListTasks)
		api.POST("/tasks", taskHandler.CreateTask)
		api.GET("/tasks/:id", taskHandler.GetTask)
		api.PATCH("/tasks/:id", taskHandler.UpdateTask)
		api.DELETE("/tasks/:id", taskHandler.DeleteTask)
		api.POST("/tasks/:id/toggle", taskHandler.ToggleTask)

		api.GET("/time-blocks", blockHandler.ListTimeBlocks)
		api.POST("/time-blocks", blockHandler.CreateTimeBlock)
		api.PATCH("/time-blocks/:id", blockHandler.UpdateTimeBlock)
		api.DELETE("/time-blocks/:id", blockHandler.DeleteTimeBlock)

		api.GET("/categories", categoryHandler.ListCategories)
		api.POST("/categories", categoryHandler.CreateCategory)
		api.PATCH("/categories/:id", categoryHandler.UpdateCategory)
		api.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		api.GET("/calendar/events", calendarHandler.ListEvents)
	}

	return router
}
