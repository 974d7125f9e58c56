package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-orders/internal/domain"
	"storefront-orders/internal/payment"
)

const (
	headerSignature = "X-Gateway-Signature"
	maxWebhookBody  = 64 << 10
)

// webhookHandler accepts gateway payment notifications. The raw body is
// verified against the shared secret before anything is decoded; unknown
// event types and unknown payment references are acknowledged so the gateway
// stops redelivering them.
func webhookHandler(svc orderService, secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		ev, err := payment.ParseEvent(body, c.GetHeader(headerSignature), secret)
		if err != nil {
			if errors.Is(err, payment.ErrBadSignature) {
				logger.Warn("webhook rejected, bad signature", zap.String("client_ip", c.ClientIP()))
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
			return
		}

		if ev.Type != payment.EventIntentSucceeded {
			c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
			return
		}

		if _, err := svc.ConfirmFromWebhook(c.Request.Context(), ev.IntentID, ev.AmountCents); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("webhook for unknown payment reference", zap.String("intent_id", ev.IntentID))
				c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
				return
			}
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
