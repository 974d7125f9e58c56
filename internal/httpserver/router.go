package httpserver

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"storefront-orders/internal/domain"
	"storefront-orders/internal/metrics"
	"storefront-orders/internal/payment"
	ordersvc "storefront-orders/internal/service/order"
)

// Deps carries the collaborators the HTTP layer needs.
type Deps struct {
	Orders        orderService
	WebhookSecret string
	AdminToken    string
}

// orderService is the order-lifecycle capability consumed by the handlers.
type orderService interface {
	CreateOrder(ctx context.Context, userID string, in ordersvc.CreateOrderInput) (*domain.Order, error)
	Get(ctx context.Context, actor ordersvc.Actor, orderID string) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string, page, limit int) ([]domain.Order, int64, error)
	RequestPayment(ctx context.Context, userID, orderID string) (*payment.Intent, error)
	ConfirmPayment(ctx context.Context, userID, orderID, intentID string) (*domain.Order, error)
	ConfirmFromWebhook(ctx context.Context, intentID string, amountCents int64) (*domain.Order, error)
	Cancel(ctx context.Context, actor ordersvc.Actor, orderID, reason string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus, trackingNumber, carrier string) (*domain.Order, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		accessLog(logger),
		otelgin.Middleware("storefront-orders"),
		metrics.GinMiddleware(),
		cors.Default(),
	)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", metrics.Handler())

	h := &orderHandlers{svc: deps.Orders, logger: logger}

	v1 := router.Group("/v1")

	user := v1.Group("", requireUser())
	user.POST("/orders", h.create)
	user.GET("/orders", h.list)
	user.GET("/orders/:id", h.get)
	user.POST("/orders/:id/payment-intent", h.requestPayment)
	user.POST("/orders/:id/payment-confirmation", h.confirmPayment)
	user.POST("/orders/:id/cancellation", h.cancel)

	admin := v1.Group("/admin", requireAdmin(deps.AdminToken))
	admin.PATCH("/orders/:id/status", h.updateStatus)
	admin.POST("/orders/:id/cancellation", h.adminCancel)
	admin.GET("/orders/stats", h.stats)

	v1.POST("/webhooks/payment", webhookHandler(deps.Orders, deps.WebhookSecret, logger))

	return router
}
