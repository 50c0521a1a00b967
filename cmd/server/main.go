package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"request-review-service/internal/auth"
	"request-review-service/internal/config"
	"request-review-service/internal/controller"
	"request-review-service/internal/middleware"
	"request-review-service/internal/rabbit"
	"request-review-service/internal/repository"
	"request-review-service/internal/service"
	"request-review-service/internal/tracking"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	db := client.Database(cfg.MongoDBName)

	// RabbitMQ
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("rabbit connect failed", zap.Error(err))
	}
	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("rabbit channel failed", zap.Error(err))
	}

	publisher, err := rabbit.NewPublisher(ch, logger)
	if err != nil {
		logger.Fatal("rabbit publisher setup failed", zap.Error(err))
	}

	// Repositories and services
	repo := repository.NewMongoRequestRepository(db)
	reviewService := service.NewReviewService(repo, publisher, logger)
	authClient := auth.NewClient(cfg.AuthURL)
	trackingClient := tracking.NewClient()

	// Handlers
	ctl := controller.NewRequestController(reviewService, trackingClient)

	// Router
	r := gin.Default()

	// Public routes
	r.POST("/requests/init", ctl.InitRequest)

	// Authenticated routes
	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(authClient))

	authed.GET("/requests/mine", ctl.GetMyRequests)
	authed.GET("/requests/:id", ctl.GetRequest)
	authed.POST("/requests/:id/customer-decision", ctl.RecordCustomerDecision)

	// Admin routes
	admin := authed.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/requests", ctl.GetAllRequests)
	admin.GET("/requests/status/:status", ctl.GetRequestsByStatus)
	admin.GET("/customers/:customerId/requests", ctl.GetCustomerRequests)
	admin.POST("/requests/:id/review", ctl.SubmitReview)
	admin.GET("/customers/:customerId/batch", ctl.PreviewBatch)
	admin.POST("/customers/:customerId/batch-review", ctl.SubmitBatchReview)
	admin.POST("/requests/:id/purchase", ctl.MarkPurchased)
	admin.PATCH("/requests/:id/status", ctl.UpdateStatus)
	admin.POST("/requests/:id/cancel", ctl.CancelRequest)
	admin.POST("/requests/:id/comments", ctl.AddComment)
	admin.GET("/requests/:id/tracking", ctl.GetTracking)

	rabbit.SetupConsumers(ch, reviewService, logger)

	logger.Info("request review service listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
