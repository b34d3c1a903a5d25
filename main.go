package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"friend-chat-service/internal/auth"
	"friend-chat-service/internal/config"
	"friend-chat-service/internal/db"
	grpcclient "friend-chat-service/internal/grpc"
	"friend-chat-service/internal/handlers"
	"friend-chat-service/internal/logger"
	"friend-chat-service/internal/middleware"
	"friend-chat-service/internal/observability"
	"friend-chat-service/internal/rabbitmq"
	"friend-chat-service/internal/repositories"
	"friend-chat-service/internal/services"
	"friend-chat-service/internal/telemetry"
	"friend-chat-service/internal/ws"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

type stores struct {
	users    repositories.UserRepository
	requests repositories.FriendRequestRepository
	messages repositories.MessageRepository
	close    func() error
}

func openStores(dsn string) (stores, error) {
	if dsn == "" {
		logger.Log.Warn("DB_DSN empty, using in-memory store")
		mem := repositories.NewMemoryStore()
		return stores{users: mem, requests: mem, messages: mem, close: func() error { return nil }}, nil
	}
	database, err := db.Connect(dsn)
	if err != nil {
		return stores{}, err
	}
	return stores{
		users:    repositories.NewUserRepo(database),
		requests: repositories.NewFriendRequestRepo(database),
		messages: repositories.NewMessageRepo(database),
		close:    database.Close,
	}, nil
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to init tracer")
	}

	st, err := openStores(cfg.DatabaseDSN)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to db")
	}
	defer st.close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	logger.Log.WithFields(logrus.Fields{
		"mode":   rabbitmq.PublisherMode(publisher),
		"reason": rabbitmq.PublisherNoopReason(publisher),
	}).Info("event publisher ready")
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit_events", cfg.ServiceName, cfg.Environment)

	jwtResolver := auth.NewJWTResolver(cfg.JWTSecret, tokenTTL)
	var resolver middleware.TokenResolver = jwtResolver
	var issuer handlers.TokenIssuer = jwtResolver
	if cfg.AuthGRPCAddr != "" {
		authConn, err := grpcclient.Dial(cfg.AuthGRPCAddr)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to connect to auth grpc")
		}
		defer authConn.Close()
		resolver = grpcclient.NewAuthClient(authConn)
		issuer = nil
	}

	registry := ws.NewRegistry()

	userService := services.NewUserService(st.users)
	friendService := services.NewFriendService(st.users, st.requests)
	conversationService := services.NewConversationService(st.users, st.messages)
	gateway := services.NewMessagingGateway(friendService, conversationService, registry)

	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService, auditEmitter)
	messageHandler := handlers.NewMessageHandler(gateway, conversationService)
	eventHandler := ws.NewEventHandler(registry, resolver, gateway, friendService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.RequestIDMiddleware())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online_users": registry.OnlineCount()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", eventHandler.Handle)

	api := router.Group("/api", middleware.AuthMiddleware(resolver))

	api.GET("/users/search", userHandler.Search)
	api.GET("/users/me/friends", userHandler.Friends)
	api.PUT("/users/me/status", userHandler.UpdateStatus)
	api.GET("/users/:user_id", userHandler.Get)

	api.POST("/friends/requests", friendHandler.SendRequest)
	api.GET("/friends/requests/received", friendHandler.Received)
	api.GET("/friends/requests/sent", friendHandler.Sent)
	api.PUT("/friends/requests/:request_id/accept", friendHandler.Accept)
	api.PUT("/friends/requests/:request_id/reject", friendHandler.Reject)
	api.DELETE("/friends/:friend_id", friendHandler.Remove)

	api.POST("/messages", messageHandler.Send)
	api.GET("/messages/conversations", messageHandler.Conversations)
	api.GET("/messages/unread/count", messageHandler.UnreadCount)
	api.GET("/messages/:user_id", messageHandler.Conversation)
	api.PUT("/messages/:message_id/read", messageHandler.MarkRead)
	api.PATCH("/messages/:message_id", messageHandler.Edit)

	handlers.RegisterDebugRoutes(router, auditEmitter, userService, issuer, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	registry.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("http shutdown")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("tracer shutdown")
	}
}
