package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-orders/internal/domain"
)

// writeError maps domain errors onto HTTP statuses. Storage-integrity
// failures are deliberately opaque to the caller; the transaction has rolled
// back and retrying is safe, so no internals are leaked.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
		return
	}

	var cErr *domain.ConflictError
	if errors.As(err, &cErr) {
		body := gin.H{"error": cErr.Reason}
		if cErr.ProductID != "" {
			body["productId"] = cErr.ProductID
		}
		c.JSON(http.StatusConflict, body)
		return
	}

	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var eErr *domain.ExternalError
	if errors.As(err, &eErr) {
		logger.Warn("external collaborator failed", zap.String("op", eErr.Op), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable, please retry"})
		return
	}

	var iErr *domain.IntegrityError
	if errors.As(err, &iErr) {
		logger.Error("storage integrity failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete the operation, please retry"})
		return
	}

	logger.Error("unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

type listOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Total  int64          `json:"total"`
}
