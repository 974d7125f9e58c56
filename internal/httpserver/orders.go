package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-orders/internal/domain"
	ordersvc "storefront-orders/internal/service/order"
)

type orderHandlers struct {
	svc    orderService
	logger *zap.Logger
}

type addressRequest struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type createOrderRequest struct {
	PaymentMethod       string         `json:"paymentMethod"`
	ShippingAddress     addressRequest `json:"shippingAddress"`
	Notes               string         `json:"notes"`
	CouponDiscountCents int64          `json:"couponDiscountCents"`
	ShippingCents       *int64         `json:"shippingCents"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type updateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
}

func (h *orderHandlers) create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), userID(c), ordersvc.CreateOrderInput{
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		ShippingAddress: domain.Address{
			Name:       req.ShippingAddress.Name,
			Line1:      req.ShippingAddress.Line1,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		Notes:               req.Notes,
		CouponDiscountCents: req.CouponDiscountCents,
		ShippingCents:       req.ShippingCents,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *orderHandlers) get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), ordersvc.Actor{UserID: userID(c)}, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandlers) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	orders, total, err := h.svc.ListForUser(c.Request.Context(), userID(c), page, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, listOrdersResponse{Orders: orders, Page: page, Limit: limit, Total: total})
}

func (h *orderHandlers) requestPayment(c *gin.Context) {
	intent, err := h.svc.RequestPayment(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

func (h *orderHandlers) confirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.svc.ConfirmPayment(c.Request.Context(), userID(c), c.Param("id"), req.PaymentIntentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandlers) cancel(c *gin.Context) {
	h.cancelAs(c, ordersvc.Actor{UserID: userID(c)})
}

func (h *orderHandlers) adminCancel(c *gin.Context) {
	h.cancelAs(c, ordersvc.Actor{Admin: true})
}

func (h *orderHandlers) cancelAs(c *gin.Context, actor ordersvc.Actor) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.svc.Cancel(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandlers) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"),
		domain.OrderStatus(req.Status), req.TrackingNumber, req.Carrier)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *orderHandlers) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
