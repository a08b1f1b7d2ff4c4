package router

import (
	"fmt"
	"strings"

	"github.com/chogo-next/internal/cache"
	"github.com/chogo-next/internal/config"
	"github.com/chogo-next/internal/constants"
	customerhandlers "github.com/chogo-next/internal/http/handlers/customer"
	paymenthandlers "github.com/chogo-next/internal/http/handlers/payment"
	sellerhandlers "github.com/chogo-next/internal/http/handlers/seller"
	shipperhandlers "github.com/chogo-next/internal/http/handlers/shipper"
	"github.com/chogo-next/internal/http/response"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the API surface
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	customerHandler := customerhandlers.New(c)
	sellerHandler := sellerhandlers.New(c)
	shipperHandler := shipperhandlers.New(c)
	paymentHandler := paymenthandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.CheckoutRateLimit.BlockSeconds,
		Message:       "too many checkout attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// gateway callbacks are signature-verified, never token-gated
		callbacks := apiV1.Group("/payments/callback")
		{
			callbacks.GET("/vnpay/return", paymentHandler.VNPayReturn)
			callbacks.GET("/vnpay/ipn", paymentHandler.VNPayIPN)
			callbacks.POST("/momo/ipn", paymentHandler.MoMoIPN)
		}

		authed := apiV1.Group("")
		authed.Use(JWTAuthMiddleware(cfg.JWT.SecretKey))

		me := authed.Group("/me")
		me.Use(RequireRole(constants.RoleCustomer))
		{
			me.GET("/cart", customerHandler.ListCart)
			me.POST("/cart/items", customerHandler.SetCartItem)
			me.DELETE("/cart/items/:variant_id", customerHandler.RemoveCartItem)
			me.DELETE("/cart", customerHandler.ClearCart)

			me.POST("/checkout", RateLimitMiddleware(redisClient, checkoutRule, KeyByUser), customerHandler.Checkout)

			me.GET("/orders", customerHandler.ListOrders)
			me.GET("/orders/:id", customerHandler.GetOrder)
			me.POST("/orders/:id/cancel", customerHandler.CancelOrder)
			me.POST("/orders/:id/pay", customerHandler.RetryPayment)
			me.GET("/orders/:id/tracking", customerHandler.GetOrderTracking)
			me.POST("/orders/:id/confirm-receipt", customerHandler.ConfirmOrderReceipt)
			me.POST("/orders/:id/return", customerHandler.RequestOrderReturn)
			me.POST("/sub-orders/:id/confirm-receipt", customerHandler.ConfirmReceipt)
			me.POST("/sub-orders/:id/return", customerHandler.RequestReturn)
			me.GET("/returns", customerHandler.ListReturns)

			me.GET("/wallet", customerHandler.GetWallet)
			me.POST("/wallet/top-up", customerHandler.TopUpWallet)
			me.GET("/wallet/transactions", customerHandler.ListWalletTransactions)
		}

		seller := authed.Group("/seller")
		seller.Use(RequireRole(constants.RoleSeller))
		{
			seller.POST("/products", sellerHandler.CreateProduct)
			seller.PUT("/products/:id", sellerHandler.UpdateProduct)
			seller.GET("/products", sellerHandler.ListProducts)
			seller.POST("/products/:id/variants", sellerHandler.CreateVariant)
			seller.PUT("/variants/:id", sellerHandler.UpdateVariant)
			seller.POST("/variants/:id/stock", sellerHandler.AdjustStock)
			seller.PUT("/variants/:id/stock", sellerHandler.SetStock)
			seller.GET("/variants/:id/stock-history", sellerHandler.ListStockAdjustments)

			seller.GET("/sub-orders", sellerHandler.ListSubOrders)
			seller.POST("/sub-orders/:id/confirm", sellerHandler.ConfirmSubOrder)
			seller.POST("/sub-orders/:id/pack", sellerHandler.PackSubOrder)

			seller.GET("/returns", sellerHandler.ListReturns)
			seller.POST("/returns/:id/approve", sellerHandler.ApproveReturn)
			seller.POST("/returns/:id/reject", sellerHandler.RejectReturn)
			seller.POST("/returns/:id/refund", sellerHandler.RefundReturn)

			seller.POST("/vouchers", sellerHandler.CreateVoucher)
			seller.GET("/vouchers", sellerHandler.ListVouchers)
			seller.POST("/vouchers/:id/deactivate", sellerHandler.DeactivateVoucher)
		}

		shipper := authed.Group("/shipper")
		shipper.Use(RequireRole(constants.RoleShipper))
		{
			shipper.GET("/tasks", shipperHandler.ListTasks)
			shipper.POST("/sub-orders/:id/pickup", shipperHandler.Pickup)
			shipper.POST("/sub-orders/:id/deliver", shipperHandler.Deliver)
			shipper.POST("/returns/:id/collected", shipperHandler.MarkReturned)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})

	return r
}
