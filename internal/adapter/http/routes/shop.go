package routes

import (
	"sorbo_shop/internal/adapter/http/handlers"
	"sorbo_shop/internal/config"

	"github.com/gin-gonic/gin"
)

const (
	PathProducts = "/products"
	PathOrders   = "/orders"
	PathCheckout = "/checkout"
	PathPayments = "/payments"
)

func addShopRoutes(rg *gin.RouterGroup, cfg config.Config, productHandler *handlers.ProductHandler, orderHandler *handlers.OrderHandler, webhookHandler *handlers.WebhookHandler) {
	operator := OperatorAuth(cfg.OperatorToken)

	products := rg.Group(PathProducts)
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.POST("", operator, productHandler.CreateProduct)
		products.PUT("/:id", operator, productHandler.UpdateProduct)
		products.DELETE("/:id", operator, productHandler.DeleteProduct)
	}

	orders := rg.Group(PathOrders)
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/status", orderHandler.GetOrderStatus)
		orders.GET("", operator, orderHandler.ListOrders)
		orders.PATCH("/:id/update_status", operator, orderHandler.UpdateOrderStatus)
		orders.POST("/:id/check_payment_status", operator, orderHandler.CheckPaymentStatus)
	}

	checkout := rg.Group(PathCheckout)
	{
		// Back URLs registered on the checkout preference; the provider
		// redirects the buyer here after the hosted checkout.
		checkout.GET("/success", orderHandler.CheckoutSuccess)
		checkout.GET("/cancel", orderHandler.CheckoutCancel)
	}

	payments := rg.Group(PathPayments)
	{
		payments.POST("/webhook", webhookHandler.HandleNotification)
	}
}
