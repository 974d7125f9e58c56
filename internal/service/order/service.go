// Package order implements the order lifecycle: checkout, payment, admin
// progression, cancellation, and reporting. All multi-step writes run inside
// a single database transaction so an order, its stock reservation, its
// number, and the cart state always commit or roll back together.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront-orders/internal/cache"
	"storefront-orders/internal/db"
	"storefront-orders/internal/domain"
	"storefront-orders/internal/metrics"
	"storefront-orders/internal/payment"
	"storefront-orders/internal/pricing"
	cartrepo "storefront-orders/internal/repository/cart"
	counterrepo "storefront-orders/internal/repository/counter"
	inventoryrepo "storefront-orders/internal/repository/inventory"
	orderrepo "storefront-orders/internal/repository/order"
	productrepo "storefront-orders/internal/repository/product"
)

const maxCancelReasonLen = 500

type orderRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, in orderrepo.InsertInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int64, error)
	SetPaymentRef(ctx context.Context, orderID, ref string) (bool, error)
	MarkPaid(ctx context.Context, orderID, intentID string) (bool, error)
	MarkCancelled(ctx context.Context, tx pgx.Tx, orderID, cancelledBy, reason string) (bool, error)
	SetStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, trackingNumber, carrier string) (bool, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

type cartRepository interface {
	GetActiveByUser(ctx context.Context, userID string) (*domain.Cart, error)
	MarkOrdered(ctx context.Context, tx pgx.Tx, cartID string) error
}

type productRepository interface {
	GetManyTx(ctx context.Context, tx pgx.Tx, ids []string) (map[string]domain.Product, error)
}

type stockLedger interface {
	Reserve(ctx context.Context, tx pgx.Tx, orderID string, items []domain.Reservation) error
	Release(ctx context.Context, tx pgx.Tx, orderID string, items []domain.Reservation) error
}

type numberSequence interface {
	Next(ctx context.Context, tx pgx.Tx, day time.Time) (string, error)
}

// Options carries the business configuration for checkout.
type Options struct {
	Currency                   string
	DefaultShippingCents       int64
	FreeShippingThresholdCents int64
	StatsTTL                   time.Duration
}

type Service struct {
	runTx    func(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
	orders   orderRepository
	carts    cartRepository
	products productRepository
	ledger   stockLedger
	sequence numberSequence
	gateway  payment.Gateway
	pricer   pricing.Calculator

	statsCache cache.Cache
	logger     *zap.Logger
	opts       Options
	now        func() time.Time
}

func New(
	pool *pgxpool.Pool,
	orders orderrepo.Repository,
	carts cartrepo.Repository,
	products productrepo.Repository,
	ledger inventoryrepo.Ledger,
	sequence counterrepo.Sequence,
	gateway payment.Gateway,
	pricer pricing.Calculator,
	statsCache cache.Cache,
	logger *zap.Logger,
	opts Options,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runTx: func(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
			return db.RunInTx(ctx, pool, fn)
		},
		orders:     orders,
		carts:      carts,
		products:   products,
		ledger:     ledger,
		sequence:   sequence,
		gateway:    gateway,
		pricer:     pricer,
		statsCache: statsCache,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Actor identifies who is performing an operation.
type Actor struct {
	UserID string
	Admin  bool
}

func (a Actor) label() string {
	if a.Admin {
		return "admin"
	}
	return "user"
}

// CreateOrderInput is the buyer's checkout request. Prices are never taken
// from the caller; they are read from the catalog inside the transaction.
type CreateOrderInput struct {
	PaymentMethod       domain.PaymentMethod
	ShippingAddress     domain.Address
	Notes               string
	CouponDiscountCents int64
	// ShippingCents overrides the configured shipping policy when set (e.g.
	// express shipping chosen at checkout).
	ShippingCents *int64
}

// CreateOrder converts the buyer's active cart into a pending order. Inside
// one transaction it snapshots catalog prices, reserves stock, draws the next
// day-scoped order number, inserts the order, and clears the cart. A
// transient storage conflict is retried once with fresh data.
func (s *Service) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*domain.Order, error) {
	if err := validateCheckout(userID, in); err != nil {
		return nil, err
	}

	var created *domain.Order
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		created, err = s.createOrderOnce(ctx, userID, in)
		var integrity *domain.IntegrityError
		if errors.As(err, &integrity) || db.IsRetryable(err) {
			s.logger.Warn("checkout hit a storage conflict, retrying",
				zap.String("user_id", userID), zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		break
	}
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) && conflict.ProductID != "" {
			metrics.StockConflicts.Inc()
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	s.logger.Info("order created",
		zap.String("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.String("user_id", userID),
		zap.Int64("total_cents", created.TotalCents))
	return created, nil
}

func (s *Service) createOrderOnce(ctx context.Context, userID string, in CreateOrderInput) (*domain.Order, error) {
	cart, err := s.carts.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Validationf("no active cart")
		}
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, domain.Validationf("cart is empty")
	}

	var created *domain.Order
	txErr := s.runTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		ids := make([]string, 0, len(cart.Lines))
		for _, l := range cart.Lines {
			ids = append(ids, l.ProductID)
		}
		catalog, err := s.products.GetManyTx(ctx, tx, ids)
		if err != nil {
			return err
		}

		// Reprice every line from the catalog so the order snapshots the
		// price in effect at checkout, not the one seen when the item was
		// added to the cart.
		priced := make([]domain.CartLine, 0, len(cart.Lines))
		lines := make([]orderrepo.LineInput, 0, len(cart.Lines))
		reservations := make([]domain.Reservation, 0, len(cart.Lines))
		for _, l := range cart.Lines {
			p, ok := catalog[l.ProductID]
			if !ok {
				return &domain.ConflictError{Reason: "product no longer available", ProductID: l.ProductID}
			}
			if !p.IsActive {
				return &domain.ConflictError{Reason: "product " + p.Name + " is no longer available", ProductID: p.ID}
			}
			priced = append(priced, domain.CartLine{
				ProductID:      p.ID,
				Quantity:       l.Quantity,
				UnitPriceCents: p.PriceCents,
			})
			lines = append(lines, orderrepo.LineInput{
				ProductID:      p.ID,
				ProductName:    p.Name,
				Quantity:       l.Quantity,
				UnitPriceCents: p.PriceCents,
			})
			reservations = append(reservations, domain.Reservation{ProductID: p.ID, Quantity: l.Quantity})
		}

		var subtotal int64
		for _, l := range priced {
			subtotal += l.UnitPriceCents * int64(l.Quantity)
		}
		shipping := s.opts.DefaultShippingCents
		if s.opts.FreeShippingThresholdCents > 0 && subtotal >= s.opts.FreeShippingThresholdCents {
			shipping = 0
		}
		if in.ShippingCents != nil {
			shipping = *in.ShippingCents
		}

		totals, err := s.pricer.Compute(priced, in.CouponDiscountCents, shipping)
		if err != nil {
			return err
		}

		orderID := uuid.NewString()
		if err := s.ledger.Reserve(ctx, tx, orderID, reservations); err != nil {
			return err
		}

		number, err := s.sequence.Next(ctx, tx, s.now())
		if err != nil {
			return err
		}

		created, err = s.orders.Insert(ctx, tx, orderrepo.InsertInput{
			ID:              orderID,
			OrderNumber:     number,
			UserID:          userID,
			PaymentMethod:   in.PaymentMethod,
			Totals:          totals,
			ShippingAddress: in.ShippingAddress,
			Notes:           in.Notes,
			Lines:           lines,
		})
		if err != nil {
			return err
		}

		return s.carts.MarkOrdered(ctx, tx, cart.ID)
	})
	if txErr != nil {
		return nil, txErr
	}
	return created, nil
}

func validateCheckout(userID string, in CreateOrderInput) error {
	if strings.TrimSpace(userID) == "" {
		return domain.Validationf("user id required")
	}
	if !in.PaymentMethod.Valid() {
		return domain.Validationf("unsupported payment method %q", in.PaymentMethod)
	}
	if in.CouponDiscountCents < 0 {
		return domain.Validationf("discount must not be negative")
	}
	if in.ShippingCents != nil && *in.ShippingCents < 0 {
		return domain.Validationf("shipping must not be negative")
	}
	addr := in.ShippingAddress
	switch {
	case strings.TrimSpace(addr.Name) == "":
		return domain.Validationf("shipping name required")
	case strings.TrimSpace(addr.Line1) == "":
		return domain.Validationf("shipping address line required")
	case strings.TrimSpace(addr.City) == "":
		return domain.Validationf("shipping city required")
	case strings.TrimSpace(addr.PostalCode) == "":
		return domain.Validationf("shipping postal code required")
	case strings.TrimSpace(addr.Country) == "":
		return domain.Validationf("shipping country required")
	}
	return nil
}

// RequestPayment creates (or re-fetches) the gateway payment intent for a
// card order. Calling it again for the same order returns the existing
// intent instead of charging twice.
func (s *Service) RequestPayment(ctx context.Context, userID, orderID string) (*payment.Intent, error) {
	o, err := s.ownedOrder(ctx, Actor{UserID: userID}, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != domain.PaymentMethodCard {
		return nil, domain.Conflictf("order %s is not paid by card", o.OrderNumber)
	}
	if o.PaymentStatus == domain.PaymentPaid {
		return nil, domain.Conflictf("order %s is already paid", o.OrderNumber)
	}
	if o.Status == domain.StatusCancelled {
		return nil, domain.Conflictf("order %s is cancelled", o.OrderNumber)
	}

	if o.PaymentRef != "" {
		return s.gateway.RetrieveIntent(ctx, o.PaymentRef)
	}

	intent, err := s.gateway.CreateIntent(ctx, o.TotalCents, s.opts.Currency, map[string]string{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
	})
	if err != nil {
		return nil, err
	}
	attached, err := s.orders.SetPaymentRef(ctx, o.ID, intent.ID)
	if err != nil {
		return nil, err
	}
	if !attached {
		// A concurrent request attached its intent first. Return that one so
		// both callers end up holding the same reference; ours stays unused
		// at the gateway and expires there.
		current, err := s.orders.GetByID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if current.PaymentRef == "" {
			return nil, domain.Conflictf("order %s can no longer accept payment", o.OrderNumber)
		}
		return s.gateway.RetrieveIntent(ctx, current.PaymentRef)
	}
	return intent, nil
}

// ConfirmPayment verifies the intent with the gateway and marks the order
// paid. Paid orders in pending also advance to processing. Confirming an
// already-paid order is a no-op returning the current order.
func (s *Service) ConfirmPayment(ctx context.Context, userID, orderID, intentID string) (*domain.Order, error) {
	if strings.TrimSpace(intentID) == "" {
		return nil, domain.Validationf("payment intent id required")
	}
	o, err := s.ownedOrder(ctx, Actor{UserID: userID}, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == domain.PaymentPaid {
		return o, nil
	}
	if o.Status == domain.StatusCancelled {
		return nil, domain.Conflictf("order %s is cancelled", o.OrderNumber)
	}
	if o.PaymentRef != "" && o.PaymentRef != intentID {
		return nil, domain.Conflictf("payment intent does not belong to order %s", o.OrderNumber)
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	// Every intent is created with the order id in its metadata. Requiring
	// the round trip stops a succeeded intent for a different order with the
	// same total from paying this one.
	if intent.Metadata["order_id"] != o.ID {
		return nil, domain.Conflictf("payment intent does not belong to order %s", o.OrderNumber)
	}
	if intent.Status != payment.IntentStatusSucceeded {
		return nil, domain.Conflictf("payment for order %s has not completed", o.OrderNumber)
	}
	if intent.AmountCents != o.TotalCents {
		return nil, domain.Conflictf("payment amount does not match order %s", o.OrderNumber)
	}

	return s.applyPaid(ctx, o.ID, intentID)
}

// ConfirmFromWebhook applies a gateway-originated success notification. The
// order is located by its payment reference; an unknown reference returns
// ErrNotFound so the caller can acknowledge and drop the event.
func (s *Service) ConfirmFromWebhook(ctx context.Context, intentID string, amountCents int64) (*domain.Order, error) {
	o, err := s.orders.GetByPaymentRef(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == domain.PaymentPaid {
		return o, nil
	}
	if amountCents != o.TotalCents {
		return nil, domain.Conflictf("payment amount does not match order %s", o.OrderNumber)
	}
	return s.applyPaid(ctx, o.ID, intentID)
}

func (s *Service) applyPaid(ctx context.Context, orderID, intentID string) (*domain.Order, error) {
	changed, err := s.orders.MarkPaid(ctx, orderID, intentID)
	if err != nil {
		return nil, err
	}
	updated, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a race with another confirmation path. Paid is the desired
		// outcome either way; anything else means the order moved to a state
		// that can no longer accept payment.
		if updated.PaymentStatus == domain.PaymentPaid {
			return updated, nil
		}
		return nil, domain.Conflictf("order %s can no longer accept payment", updated.OrderNumber)
	}

	metrics.PaymentsConfirmed.Inc()
	s.logger.Info("payment confirmed",
		zap.String("order_id", updated.ID),
		zap.String("payment_ref", intentID))
	return updated, nil
}

// Cancel voids an order and returns its reserved stock, all in one
// transaction. Buyers may cancel their own pending or processing orders;
// admins may cancel anyone's. Shipped and later orders are refused.
func (s *Service) Cancel(ctx context.Context, actor Actor, orderID, reason string) (*domain.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Validationf("cancellation reason required")
	}
	if len(reason) > maxCancelReasonLen {
		return nil, domain.Validationf("cancellation reason exceeds %d characters", maxCancelReasonLen)
	}

	txErr := s.runTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		o, err := s.orders.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !actor.Admin && o.UserID != actor.UserID {
			return domain.ErrNotFound
		}
		if o.Status == domain.StatusCancelled {
			return domain.Conflictf("order %s is already cancelled", o.OrderNumber)
		}
		if !o.Status.Cancellable() {
			return domain.Conflictf("order %s in status %s cannot be cancelled", o.OrderNumber, o.Status)
		}

		changed, err := s.orders.MarkCancelled(ctx, tx, o.ID, actor.label(), reason)
		if err != nil {
			return err
		}
		if !changed {
			return domain.Conflictf("order %s cannot be cancelled", o.OrderNumber)
		}

		return s.ledger.Release(ctx, tx, o.ID, o.Reservations())
	})
	if txErr != nil {
		return nil, txErr
	}

	metrics.OrdersCancelled.Inc()
	s.logger.Info("order cancelled",
		zap.String("order_id", orderID),
		zap.String("cancelled_by", actor.label()))
	return s.orders.GetByID(ctx, orderID)
}

// UpdateStatus moves an order forward through fulfillment. Only forward
// transitions are permitted; cancellation has its own operation because it
// must return stock.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus, trackingNumber, carrier string) (*domain.Order, error) {
	if !next.Valid() {
		return nil, domain.Validationf("unknown status %q", next)
	}
	if next == domain.StatusCancelled {
		return nil, domain.Conflictf("cancellation must go through the cancel operation")
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanProgressTo(next) {
		return nil, domain.Conflictf("order %s cannot move from %s to %s", o.OrderNumber, o.Status, next)
	}

	changed, err := s.orders.SetStatus(ctx, o.ID, o.Status, next, trackingNumber, carrier)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.Conflictf("order %s changed concurrently, retry", o.OrderNumber)
	}

	s.logger.Info("order status updated",
		zap.String("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(next)))
	return s.orders.GetByID(ctx, o.ID)
}

// Get returns one order. Non-admin callers only see their own orders; an
// order owned by someone else is indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	return s.ownedOrder(ctx, actor, orderID)
}

func (s *Service) ownedOrder(ctx context.Context, actor Actor, orderID string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && o.UserID != actor.UserID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ListForUser pages through a buyer's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, page, limit int) ([]domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.orders.ListByUser(ctx, userID, limit, (page-1)*limit)
}

const statsCacheKey = "stats"

// Stats returns the admin dashboard aggregation, cached for a short TTL so
// repeated dashboard refreshes do not hammer the orders table.
func (s *Service) Stats(ctx context.Context) (*domain.OrderStats, error) {
	if s.statsCache != nil {
		if cached, err := s.statsCache.Get(ctx, s.statsCache.Key("orders", statsCacheKey)); err == nil && cached != "" {
			var stats domain.OrderStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if s.statsCache != nil {
		if encoded, err := json.Marshal(stats); err == nil {
			if err := s.statsCache.Set(ctx, s.statsCache.Key("orders", statsCacheKey), string(encoded), s.opts.StatsTTL); err != nil {
				s.logger.Warn("stats cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}
