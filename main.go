package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dev-mohitbeniwal/relay/audit"
	"github.com/dev-mohitbeniwal/relay/config"
	"github.com/dev-mohitbeniwal/relay/controller"
	"github.com/dev-mohitbeniwal/relay/dao"
	"github.com/dev-mohitbeniwal/relay/db"
	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/middleware"
	"github.com/dev-mohitbeniwal/relay/redirect"
	"github.com/dev-mohitbeniwal/relay/router"
	"github.com/dev-mohitbeniwal/relay/service"
	"github.com/dev-mohitbeniwal/relay/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the redirect store
	store, closeStore, err := newRedirectStore()
	if err != nil {
		logger.Fatal("Failed to initialize redirect store", zap.Error(err))
	}
	defer closeStore()

	// Initialize Redis
	var invalidationBus *util.RedisInvalidationBus
	var rateLimit middleware.LimitFunc
	if config.GetBool("redis.enabled") {
		if err := db.InitRedis(); err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		defer db.CloseRedis()
		invalidationBus = util.NewRedisInvalidationBus(db.RedisClient, config.GetString("redirect.invalidationChannel"))
		rateLimit = db.RateLimit
	} else {
		logger.Warn("Redis disabled, redirect changes reach other instances only after their cache TTL")
	}

	// Initialize EventBus
	eventBus := util.NewEventBus()
	eventBus.Start(ctx)

	// Initialize the redirect cache and router
	cache := redirect.NewCache(store,
		config.GetDuration("redirect.cacheTTL"),
		redirect.WithStoreTimeout(config.GetDuration("redirect.storeTimeout")),
		redirect.WithRetryBackoff(config.GetDuration("redirect.retryBackoff")))
	redirectRouter := redirect.NewRouter(cache, config.GetStringSlice("redirect.skipPrefixes"))

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	notificationService := util.NewNotificationService()
	auditService, err := newAuditService()
	if err != nil {
		logger.Fatal("Failed to initialize audit trail", zap.Error(err))
	}

	var broadcaster service.Broadcaster
	if invalidationBus != nil {
		broadcaster = invalidationBus
	}

	services, err := service.InitializeServices(store, cache, broadcaster, auditService, validationUtil, notificationService, eventBus)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	controllers := controller.InitializeControllers(services)

	verifier, err := newTokenVerifier()
	if err != nil {
		logger.Fatal("Failed to initialize session verification", zap.Error(err))
	}

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine, err := router.SetupRouter(controllers, router.Options{
		Redirects:         redirectRouter,
		Verifier:          verifier,
		RequiredGroups:    config.GetStringSlice("auth.requiredGroups"),
		RateLimit:         rateLimit,
		RateLimitRequests: config.GetInt("ratelimit.requests"),
		RateLimitDuration: config.GetDuration("ratelimit.duration"),
		ContentUpstream:   config.GetString("content.upstream"),
	})
	if err != nil {
		logger.Fatal("Failed to set up router", zap.Error(err))
	}

	// Set up the server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if invalidationBus != nil {
		g.Go(func() error {
			return invalidationBus.Run(gctx, cache)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	eventBus.Wait()

	logger.Info("Server exiting")
}

// newRedirectStore opens the backend selected by redirect.store.
func newRedirectStore() (dao.RedirectStore, func(), error) {
	switch backend := config.GetString("redirect.store"); backend {
	case "neo4j":
		if err := db.InitNeo4j(); err != nil {
			return nil, nil, err
		}
		return dao.NewRedirectDAO(db.Neo4jDriver), db.CloseNeo4j, nil
	case "mysql":
		if err := db.InitMySQL(); err != nil {
			return nil, nil, err
		}
		store, err := dao.NewGormRedirectDAO(db.MySQL)
		if err != nil {
			db.CloseMySQL()
			return nil, nil, err
		}
		return store, db.CloseMySQL, nil
	case "memory":
		logger.Warn("Using in-memory redirect store, rules are lost on restart")
		return dao.NewMemoryRedirectDAO(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown redirect store %q", backend)
	}
}

func newAuditService() (audit.Service, error) {
	if !config.GetBool("audit.enabled") {
		return audit.NewService(audit.NewLogRepository()), nil
	}
	repo, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"), config.GetString("audit.index"))
	if err != nil {
		return nil, err
	}
	return audit.NewService(repo), nil
}

func newTokenVerifier() (middleware.TokenVerifier, error) {
	switch mode := config.GetString("auth.mode"); mode {
	case "hmac":
		return middleware.NewHMACVerifier(config.GetString("auth.jwt.secret"), config.GetString("auth.jwt.issuer"))
	case "cognito":
		return middleware.NewCognitoVerifier(config.GetString("auth.cognito.aws_region"), config.GetString("auth.cognito.user_pool_id"))
	default:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}
}
