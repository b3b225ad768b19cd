package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-backend/internal/db"
	"chat-backend/internal/handlers"
	"chat-backend/internal/middleware"
	"chat-backend/internal/observability"
	"chat-backend/internal/rabbitmq"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
	"chat-backend/internal/tracing"
)

const serviceName = "chat-backend"

func main() {
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	environment := getEnv("ENVIRONMENT", "development")

	shutdownTracing, err := tracing.Init(context.Background(), serviceName, environment, getEnv("OTLP_ADDR", ""))
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "chat.events"))
	defer publisher.Close()

	emitter := telemetry.NewEventEmitter(publisher, serviceName, environment)

	userRepo := repositories.NewUserRepo(database)
	tokenRepo := repositories.NewTokenRepo(database)
	threadRepo := repositories.NewThreadRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	pageSize := getEnvInt("PAGE_SIZE", 20)

	authHandler := handlers.NewAuthHandler(userRepo, tokenRepo, emitter)
	threadHandler := handlers.NewThreadHandler(threadRepo, userRepo, emitter, pageSize)
	messageHandler := handlers.NewMessageHandler(threadRepo, messageRepo, emitter, pageSize)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/token", authHandler.IssueToken)

	authMiddleware := middleware.AuthMiddleware(tokenRepo)

	router.POST("/threads", authMiddleware, threadHandler.CreateThread)
	router.GET("/threads", authMiddleware, threadHandler.ListThreads)
	router.DELETE("/threads/:thread_id", authMiddleware, threadHandler.DeleteThread)
	router.GET("/threads/:thread_id/messages", authMiddleware, messageHandler.ListThreadMessages)

	router.POST("/messages", authMiddleware, messageHandler.CreateMessage)
	router.PATCH("/messages/:message_id", authMiddleware, messageHandler.SetReadStatus)
	router.GET("/messages/unread-count", authMiddleware, messageHandler.UnreadCount)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	handlers.RegisterDebugRoutes(router, emitter, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
