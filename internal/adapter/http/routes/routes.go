package routes

import (
	"log"
	_ "sorbo_shop/docs" // This will be auto-generated
	"sorbo_shop/internal/adapter/http/handlers"
	repository2 "sorbo_shop/internal/adapter/persistence/repository"
	"sorbo_shop/internal/config"
	"sorbo_shop/internal/infrastructure/database"
	"sorbo_shop/internal/infrastructure/payments"
	"sorbo_shop/internal/usecase"
	"sorbo_shop/pkg/metrics"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router = gin.Default()

// Run will start the server
func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	getRoutes(cfg)

	if err := router.Run(":" + strconv.Itoa(cfg.Port)); err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

func getRoutes(cfg config.Config) {
	ddb := database.ConnectDynamoDB()

	productRepo := repository2.NewProductDynamoRepository(ddb, cfg.ProductsTable)
	orderRepo := repository2.NewOrderDynamoRepository(ddb, cfg.OrdersTable)

	gateway, err := payments.NewMercadoPagoGateway(cfg)
	if err != nil {
		log.Fatalf("Mercado Pago gateway not configured: %v", err)
	}
	verifier := payments.NewWebhookSignatureVerifier(cfg.WebhookSecret)

	productUseCase := usecase.NewProductUseCase(productRepo)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, productRepo, gateway, cfg.MinOrderAmount)
	reconcileUseCase := usecase.NewReconcileUseCase(orderRepo, productRepo, gateway)

	productHandler := handlers.NewProductHandler(productUseCase)
	orderHandler := handlers.NewOrderHandler(orderUseCase, reconcileUseCase)
	webhookHandler := handlers.NewWebhookHandler(verifier, gateway, reconcileUseCase)

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addShopRoutes(v1, cfg, productHandler, orderHandler, webhookHandler)
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
