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
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	"github.com/workfloworchestrator/oauth2-filter/audit"
	"github.com/workfloworchestrator/oauth2-filter/config"
	"github.com/workfloworchestrator/oauth2-filter/controller"
	"github.com/workfloworchestrator/oauth2-filter/db"
	"github.com/workfloworchestrator/oauth2-filter/introspect"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
	"github.com/workfloworchestrator/oauth2-filter/middleware"
	"github.com/workfloworchestrator/oauth2-filter/opa"
	"github.com/workfloworchestrator/oauth2-filter/router"
	"github.com/workfloworchestrator/oauth2-filter/service"
	"github.com/workfloworchestrator/oauth2-filter/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger("logging")
	defer logger.Sync()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Compile the security rules. A bad rules file is fatal: silently
	// starting without rules would deny everything and hide the bug.
	rulesFile := config.GetString("security.rulesFile")
	ruleSet, err := config.LoadRuleSet(rulesFile)
	if err != nil {
		logger.Fatal("Failed to load security rules", zap.String("file", rulesFile), zap.Error(err))
	}
	evaluator := accesscontrol.NewEvaluator(ruleSet)
	logger.Info("Security rules loaded", zap.String("file", rulesFile), zap.Int("ruleCount", ruleSet.Len()))

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize the decision audit trail
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)
	audit.Subscribe(eventBus, auditService)

	// Initialize the token introspector
	var introspector introspect.Introspector = introspect.NewClient(
		config.GetString("oauth2.openIDURL"),
		config.GetString("oauth2.resourceServerID"),
		config.GetString("oauth2.resourceServerSecret"),
		introspect.WithIntrospectEndpoint(config.GetString("oauth2.introspectEndpoint")),
		introspect.WithTimeout(viper.GetDuration("oauth2.introspectTimeout")),
	)
	if ttl := viper.GetDuration("security.introspectCacheTTL"); ttl > 0 {
		introspector = introspect.NewCachingIntrospector(introspector, introspect.RedisTokenCache{}, ttl)
	}

	// Optional delegation to an external policy agent
	var policyAgent *opa.Client
	if opaURL := config.GetString("oauth2.opaURL"); opaURL != "" {
		policyAgent = opa.NewClient(opaURL)
	}

	// Initialize services and controllers
	services := service.InitializeServices(evaluator, rulesFile, auditService, eventBus)
	controllers := controller.InitializeControllers(services)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(
		controllers,
		middleware.OAuthFilterConfig{
			Introspector:    introspector,
			Evaluator:       evaluator,
			PolicyAgent:     policyAgent,
			EventBus:        eventBus,
			WhiteListedURLs: config.GetStringSlice("security.whiteListedURLs"),
			AllowLocalhost:  config.GetBool("security.allowLocalhost"),
		},
		100, time.Minute, // 100 requests per minute
	)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	// Reload the rules when the file changes. A failed reload keeps
	// the previous rule set.
	group.Go(func() error {
		return config.WatchRules(groupCtx, rulesFile, func() {
			if err := services.Authz.ReloadRules(groupCtx); err != nil {
				logger.Error("Automatic rules reload failed", zap.Error(err))
			}
		})
	})

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	cancel()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := group.Wait(); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}

	logger.Info("Server exiting")
}
