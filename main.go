package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"locktheday/internal/auth"
	"locktheday/internal/config"
	"locktheday/internal/db"
	"locktheday/internal/handlers"
	"locktheday/internal/middleware"
	"locktheday/internal/observability"
	"locktheday/internal/rabbitmq"
	"locktheday/internal/repositories"
	"locktheday/internal/storage"
	"locktheday/internal/telemetry"
	"locktheday/internal/ws"
)

const serviceName = "locktheday"

func main() {
	cfg := config.Load()
	ctx := context.Background()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Audit records and domain events ride the same exchange. Without a
	// broker both fall back to no-ops and the service still serves traffic.
	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("event publisher mode: %s", rabbitmq.PublisherMode(auditPublisher))

	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.locktheday", serviceName, cfg.Environment)

	if cfg.AMQPURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("domain event publisher unavailable: %v", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	uploader, err := storage.NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		log.Fatalf("failed to init capsule storage: %v", err)
	}

	jwt := auth.NewJWT(cfg.JWTSecret)

	profileRepo := repositories.NewProfileRepo(database)
	capsuleRepo := repositories.NewCapsuleRepo(database)
	shareRepo := repositories.NewShareRepo(database)
	friendRepo := repositories.NewFriendRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	roleRepo := repositories.NewRoleRepo(database)

	hub := ws.NewHub()

	authHandler := handlers.NewAuthHandler(profileRepo, jwt)
	capsuleHandler := handlers.NewCapsuleHandler(capsuleRepo, shareRepo, friendRepo, profileRepo, uploader, hub, auditEmitter)
	friendHandler := handlers.NewFriendHandler(friendRepo, profileRepo, hub)
	chatHandler := handlers.NewChatHandler(messageRepo, friendRepo, hub)
	adminHandler := handlers.NewAdminHandler(profileRepo, capsuleRepo, roleRepo, auditEmitter)
	feedWS := ws.NewFeedHandler(hub, jwt)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	requireAuth := middleware.Auth(jwt)
	optionalAuth := middleware.OptionalAuth(jwt)
	requireAdmin := middleware.RequireAdmin(roleRepo)
	requireSuperAdmin := middleware.RequireSuperAdmin(roleRepo)

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.GET("/me", requireAuth, authHandler.Me)
	router.GET("/me/unread-messages", requireAuth, chatHandler.UnreadCount)
	router.GET("/users/search", requireAuth, authHandler.SearchUsers)

	router.POST("/capsules", requireAuth, capsuleHandler.Create)
	router.POST("/capsules/upload", requireAuth, capsuleHandler.Upload)
	router.GET("/capsules/public", optionalAuth, capsuleHandler.ListPublic)
	router.GET("/capsules/mine", requireAuth, capsuleHandler.ListMine)
	router.GET("/capsules/shared-with-me", requireAuth, capsuleHandler.SharedWithMe)
	router.GET("/capsules/token/:share_token", capsuleHandler.GetByToken)
	router.GET("/capsules/:capsule_id", optionalAuth, capsuleHandler.Get)
	router.POST("/capsules/:capsule_id/share", requireAuth, capsuleHandler.Share)

	router.GET("/friends", requireAuth, friendHandler.List)
	router.GET("/friends/requests", requireAuth, friendHandler.ListRequests)
	router.POST("/friends/requests", requireAuth, friendHandler.SendRequest)
	router.POST("/friends/requests/:request_id/respond", requireAuth, friendHandler.Respond)
	router.DELETE("/friends/requests/:request_id", requireAuth, friendHandler.Cancel)
	router.DELETE("/friends/:friend_id", requireAuth, friendHandler.Unfriend)

	router.GET("/messages/:friend_id", requireAuth, chatHandler.Conversation)
	router.POST("/messages/:friend_id", requireAuth, chatHandler.Send)
	router.POST("/messages/:friend_id/read", requireAuth, chatHandler.MarkRead)

	admin := router.Group("/admin", requireAuth, requireAdmin)
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/users", adminHandler.ListUsers)
	admin.DELETE("/capsules/:capsule_id", adminHandler.DeleteCapsule)
	admin.PUT("/users/:user_id/role", requireSuperAdmin, adminHandler.UpdateRole)
	admin.DELETE("/users/:user_id", requireSuperAdmin, adminHandler.DeleteUser)
	admin.GET("/role-changes", requireSuperAdmin, adminHandler.RoleChanges)

	router.GET("/ws/feed", feedWS.Handle)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.Debug)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
