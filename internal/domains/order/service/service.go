package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	catalogmodel "elysian-backend/internal/domains/catalog/model"
	discountmodel "elysian-backend/internal/domains/discount/model"
	discountservice "elysian-backend/internal/domains/discount/service"
	inventoryservice "elysian-backend/internal/domains/inventory/service"
	"elysian-backend/internal/domains/order/model"
	"elysian-backend/internal/domains/order/repository"
	"elysian-backend/internal/shared"
	"elysian-backend/internal/shared/utils"
	"elysian-backend/pkg/logger"
)

// VariantResolver resolves checkout SKUs. Satisfied by the catalog service.
type VariantResolver interface {
	CheckoutVariants(ctx context.Context, skus []string) (map[string]catalogmodel.CheckoutVariant, error)
}

// GatewayOrderCreator registers the external payment order for online
// checkouts. Satisfied by the razorpay client.
type GatewayOrderCreator interface {
	CreateOrder(ctx context.Context, receipt string, amount decimal.Decimal) (gatewayOrderID string, err error)
}

// PricingConfig carries the store-level tax and shipping knobs
type PricingConfig struct {
	Tax                   model.TaxConfig
	StandardShipping      decimal.Decimal
	ExpressShipping       decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	GatewayKeyID          string
}

type Service interface {
	Checkout(ctx context.Context, customerID uuid.UUID, req model.CheckoutRequest) (*model.CheckoutResponse, error)
	GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*model.OrderResponse, error)
	ListMyOrders(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.OrderResponse, int64, error)
	Cancel(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*model.OrderResponse, error)
	RequestReturn(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*model.OrderResponse, error)
	ShippingQuote(method string, subtotal decimal.Decimal) model.ShippingQuote

	// ConfirmPayment applies payment capture: flips payment status under the
	// pending guard, reserves stock, redeems the discount and confirms the
	// order, all in one transaction. Safe to call repeatedly; retried
	// webhooks find the guard already consumed and change nothing.
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, transactionID string, paidAt time.Time) error

	// FailPayment marks a pending payment failed and cancels the order.
	FailPayment(ctx context.Context, orderID uuid.UUID, reason string) error

	// Admin operations
	List(ctx context.Context, q model.ListOrdersQuery) ([]model.OrderResponse, int64, error)
	UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req model.UpdateStatusRequest) (*model.OrderResponse, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

type service struct {
	repo      repository.Repository
	variants  VariantResolver
	discounts discountservice.Service
	profiles  discountservice.CustomerProfileProvider
	inventory inventoryservice.Service
	gateway   GatewayOrderCreator
	queue     *asynq.Client
	cfg       PricingConfig
}

func NewService(
	repo repository.Repository,
	variants VariantResolver,
	discounts discountservice.Service,
	profiles discountservice.CustomerProfileProvider,
	inventory inventoryservice.Service,
	gateway GatewayOrderCreator,
	queue *asynq.Client,
	cfg PricingConfig,
) Service {
	return &service{
		repo:      repo,
		variants:  variants,
		discounts: discounts,
		profiles:  profiles,
		inventory: inventory,
		gateway:   gateway,
		queue:     queue,
		cfg:       cfg,
	}
}

func (s *service) Checkout(ctx context.Context, customerID uuid.UUID, req model.CheckoutRequest) (*model.CheckoutResponse, error) {
	now := time.Now()

	lines, categories, subtotal, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	checkout, err := s.buildDiscountContext(ctx, customerID, req, lines, categories)
	if err != nil {
		return nil, err
	}

	var discount *discountmodel.Discount
	var application *discountmodel.Application
	if req.DiscountCode != nil && *req.DiscountCode != "" {
		discount, application, err = s.discounts.Evaluate(ctx, *req.DiscountCode, checkout, subtotal, now)
		if err != nil {
			return nil, err
		}
	} else {
		discount, application, err = s.discounts.AutoApply(ctx, checkout, subtotal, now)
		if err != nil {
			return nil, err
		}
	}

	shippingMethod := req.ShippingMethod
	if shippingMethod == "" {
		shippingMethod = "standard"
	}
	shippingCost := s.shippingCost(shippingMethod, subtotal)

	input := model.PricingInput{
		ShippingCost:  shippingCost,
		DeliveryState: req.ShippingAddress.State,
		Tax:           s.cfg.Tax,
	}
	for _, line := range lines {
		input.Items = append(input.Items, model.PricingItem{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}
	if application != nil {
		input.DiscountAmount = application.Amount
		input.FreeShipping = application.FreeShipping
	}
	pricing := model.PriceOrder(input)

	method := model.PaymentMethod(req.PaymentMethod)
	order := s.newOrder(customerID, req, lines, pricing, shippingMethod, method, now)
	if discount != nil && application != nil {
		order.DiscountID = &discount.ID
		order.DiscountCode = &application.Code
		order.DiscountType = &application.Type
	}

	productIDs, err := s.persistCheckout(ctx, order, discount, method, now)
	if err != nil {
		return nil, err
	}
	s.enqueueSyncs(productIDs, "SALE")

	resp := &model.CheckoutResponse{Order: order.ToResponse(now)}

	if !method.ReservesStockAtCheckout() {
		gatewayOrderID, err := s.gateway.CreateOrder(ctx, order.OrderNumber, order.TotalAmount)
		if err != nil {
			// The order stays pending; the customer can retry payment.
			logger.Error("failed to create gateway order", err)
			return resp, nil
		}
		if err := s.repo.SetGatewayOrderID(ctx, order.ID, gatewayOrderID); err != nil {
			logger.Error("failed to persist gateway order id", err)
		}
		amountDue := order.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()
		resp.GatewayOrderID = &gatewayOrderID
		resp.GatewayKeyID = &s.cfg.GatewayKeyID
		resp.AmountDue = &amountDue
		resp.Currency = "INR"
	}

	logger.Info("order placed", map[string]interface{}{
		"order_number": order.OrderNumber,
		"customer_id":  customerID.String(),
		"method":       order.PaymentMethod,
		"total":        order.TotalAmount.String(),
	})
	return resp, nil
}

// persistCheckout runs the checkout transaction. COD reserves stock and
// redeems the discount immediately; online orders defer both to payment
// capture so a failed payment leaves no side effects.
func (s *service) persistCheckout(ctx context.Context, order *model.Order, discount *discountmodel.Discount, method model.PaymentMethod, now time.Time) ([]uuid.UUID, error) {
	var productIDs []uuid.UUID
	err := s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.CreateOrderTx(ctx, tx, order); err != nil {
			return err
		}

		if !method.ReservesStockAtCheckout() {
			return nil
		}

		items := reservationItems(order.Items)
		ids, err := s.inventory.ReserveStockTx(ctx, tx, order.ID, items)
		if err != nil {
			return err
		}
		productIDs = ids

		if discount != nil {
			return s.discounts.RedeemTx(ctx, tx, discount.ID, order.CustomerID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return productIDs, nil
}

func reservationItems(items []model.OrderItem) []inventoryservice.ReservationItem {
	out := make([]inventoryservice.ReservationItem, len(items))
	for i, item := range items {
		out[i] = inventoryservice.ReservationItem{SKU: item.SKU, Quantity: item.Quantity}
	}
	return out
}

func (s *service) newOrder(customerID uuid.UUID, req model.CheckoutRequest, lines []model.OrderItem, pricing model.PricingResult, shippingMethod string, method model.PaymentMethod, now time.Time) *model.Order {
	status := model.OrderStatusPending
	if method.ReservesStockAtCheckout() {
		status = model.OrderStatusConfirmed
	}

	order := &model.Order{
		ID:          uuid.New(),
		OrderNumber: model.GenerateOrderNumber(now),
		CustomerID:  customerID,

		Subtotal:       pricing.Subtotal,
		ShippingCost:   pricing.ShippingCost,
		DiscountAmount: pricing.DiscountAmount,
		CGST:           pricing.CGST,
		SGST:           pricing.SGST,
		IGST:           pricing.IGST,
		TotalTax:       pricing.TotalTax,
		TotalAmount:    pricing.TotalAmount,

		PaymentMethod: string(method),
		PaymentStatus: string(model.PaymentStatusPending),

		Status:         string(status),
		Version:        1,
		ShippingMethod: shippingMethod,

		CustomerNote: req.CustomerNote,
		Address:      req.ShippingAddress.ToAddress(),
		Items:        lines,
	}
	return order
}

func (s *service) resolveLines(ctx context.Context, items []model.CheckoutItemRequest) ([]model.OrderItem, map[string]uuid.UUID, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, nil, decimal.Zero, model.ErrEmptyOrder
	}

	skus := make([]string, len(items))
	for i, item := range items {
		skus[i] = item.SKU
	}
	variants, err := s.variants.CheckoutVariants(ctx, skus)
	if err != nil {
		return nil, nil, decimal.Zero, err
	}

	lines := make([]model.OrderItem, 0, len(items))
	categories := make(map[string]uuid.UUID, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		v, ok := variants[item.SKU]
		if !ok {
			return nil, nil, decimal.Zero, catalogmodel.ErrVariantNotFound
		}
		if !v.IsActive {
			return nil, nil, decimal.Zero, catalogmodel.ErrVariantInactive
		}

		lineTotal := v.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, model.OrderItem{
			ID:          uuid.New(),
			ProductID:   v.ProductID,
			ProductName: v.ProductName,
			VariantID:   v.VariantID,
			VariantSize: v.Size,
			SKU:         v.SKU,
			UnitPrice:   v.Price,
			Quantity:    item.Quantity,
			LineTotal:   lineTotal,
		})
		categories[v.SKU] = v.CategoryID
		subtotal = subtotal.Add(lineTotal)
	}
	return lines, categories, subtotal, nil
}

func (s *service) buildDiscountContext(ctx context.Context, customerID uuid.UUID, req model.CheckoutRequest, lines []model.OrderItem, categories map[string]uuid.UUID) (discountmodel.CheckoutContext, error) {
	tier, isNew, err := s.profiles.CustomerProfile(ctx, customerID)
	if err != nil {
		return discountmodel.CheckoutContext{}, err
	}

	checkout := discountmodel.CheckoutContext{
		CustomerID:    customerID,
		CustomerTier:  tier,
		IsNewCustomer: isNew,
		State:         req.ShippingAddress.State,
		Pincode:       req.ShippingAddress.Pincode,
	}
	for _, line := range lines {
		checkout.Items = append(checkout.Items, discountmodel.CheckoutItem{
			ProductID:  line.ProductID,
			CategoryID: categories[line.SKU],
			SKU:        line.SKU,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
		})
	}
	return checkout, nil
}

func (s *service) shippingCost(method string, subtotal decimal.Decimal) decimal.Decimal {
	if s.cfg.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(s.cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	if method == "express" {
		return s.cfg.ExpressShipping
	}
	return s.cfg.StandardShipping
}

func (s *service) ShippingQuote(method string, subtotal decimal.Decimal) model.ShippingQuote {
	if method == "" {
		method = "standard"
	}
	cost := s.shippingCost(method, subtotal)
	return model.ShippingQuote{
		Method:                method,
		Cost:                  cost,
		FreeShipping:          cost.IsZero(),
		FreeShippingThreshold: s.cfg.FreeShippingThreshold,
	}
}

func (s *service) GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*model.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, model.ErrNotOrderOwner
	}
	return order.ToResponse(time.Now()), nil
}

func (s *service) ListMyOrders(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.OrderResponse, int64, error) {
	orders, total, err := s.repo.ListByCustomer(ctx, customerID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toResponses(orders), total, nil
}

func (s *service) Cancel(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*model.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, model.ErrNotOrderOwner
	}
	if !order.CanCancel() {
		return nil, model.ErrCannotCancel
	}

	now := time.Now()
	wasConfirmed := model.OrderStatus(order.Status) == model.OrderStatusConfirmed
	order.CancellationReason = &reason

	var productIDs []uuid.UUID
	err = s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.UpdateStatusTx(ctx, tx, order, model.OrderStatusCancelled, now); err != nil {
			return err
		}
		if err := s.repo.AppendHistoryTx(ctx, tx, &model.StatusHistory{
			OrderID:   order.ID,
			Status:    string(model.OrderStatusCancelled),
			Note:      &reason,
			UpdatedBy: &customerID,
		}); err != nil {
			return err
		}

		// Stock was only reserved once the order reached confirmed.
		if wasConfirmed {
			ids, err := s.inventory.ReleaseStockTx(ctx, tx, order.ID, reservationItems(order.Items))
			if err != nil {
				return err
			}
			productIDs = ids
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.enqueueSyncs(productIDs, "RELEASE")

	logger.Info("order cancelled", map[string]interface{}{
		"order_number": order.OrderNumber,
		"customer_id":  customerID.String(),
	})
	return order.ToResponse(now), nil
}

func (s *service) RequestReturn(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*model.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, model.ErrNotOrderOwner
	}

	now := time.Now()
	if model.OrderStatus(order.Status) != model.OrderStatusDelivered {
		return nil, model.ErrNotDelivered
	}
	if !order.CanReturn(now) {
		return nil, model.ErrReturnWindowClosed
	}

	order.ReturnReason = &reason

	err = s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.UpdateStatusTx(ctx, tx, order, model.OrderStatusReturned, now); err != nil {
			return err
		}
		return s.repo.AppendHistoryTx(ctx, tx, &model.StatusHistory{
			OrderID:   order.ID,
			Status:    string(model.OrderStatusReturned),
			Note:      &reason,
			UpdatedBy: &customerID,
		})
	})
	if err != nil {
		return nil, err
	}

	return order.ToResponse(now), nil
}

func (s *service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, transactionID string, paidAt time.Time) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	var productIDs []uuid.UUID
	err = s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		applied, err := s.repo.MarkPaymentCapturedTx(ctx, tx, order, transactionID, paidAt)
		if err != nil {
			return err
		}
		if !applied {
			// Retried or out-of-order webhook; the capture was already applied.
			logger.Info("payment capture already applied", map[string]interface{}{
				"order_number": order.OrderNumber,
			})
			return nil
		}

		ids, err := s.inventory.ReserveStockTx(ctx, tx, order.ID, reservationItems(order.Items))
		if err != nil {
			return err
		}
		productIDs = ids

		if order.DiscountID != nil {
			if err := s.discounts.RedeemTx(ctx, tx, *order.DiscountID, order.CustomerID, paidAt); err != nil {
				return err
			}
		}

		if model.OrderStatus(order.Status) == model.OrderStatusPending {
			if err := s.repo.UpdateStatusTx(ctx, tx, order, model.OrderStatusConfirmed, paidAt); err != nil {
				return err
			}
			if err := s.repo.AppendHistoryTx(ctx, tx, &model.StatusHistory{
				OrderID: order.ID,
				Status:  string(model.OrderStatusConfirmed),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.enqueueSyncs(productIDs, "SALE")

	logger.Info("payment captured", map[string]interface{}{
		"order_number":   order.OrderNumber,
		"transaction_id": transactionID,
	})
	return nil
}

func (s *service) FailPayment(ctx context.Context, orderID uuid.UUID, reason string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		applied, err := s.repo.MarkPaymentFailedTx(ctx, tx, order, reason)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}

		if model.OrderStatus(order.Status) != model.OrderStatusPending {
			return nil
		}

		if err := s.repo.UpdateStatusTx(ctx, tx, order, model.OrderStatusCancelled, time.Now()); err != nil {
			return err
		}
		note := "payment failed: " + reason
		return s.repo.AppendHistoryTx(ctx, tx, &model.StatusHistory{
			OrderID: order.ID,
			Status:  string(model.OrderStatusCancelled),
			Note:    &note,
		})
	})
}

func (s *service) List(ctx context.Context, q model.ListOrdersQuery) ([]model.OrderResponse, int64, error) {
	orders, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return toResponses(orders), total, nil
}

func (s *service) UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req model.UpdateStatusRequest) (*model.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	current := model.OrderStatus(order.Status)
	target := model.OrderStatus(req.Status)

	allowed := current.CanTransitionTo(target)
	if target == model.OrderStatusCancelled {
		allowed = current.CanCancelFrom()
	}
	if target == model.OrderStatusReturned && !order.CanReturn(now) {
		return nil, model.ErrReturnWindowClosed
	}
	if !allowed {
		return nil, model.ErrInvalidTransition
	}

	var productIDs []uuid.UUID
	err = s.repo.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.UpdateStatusTx(ctx, tx, order, target, now); err != nil {
			return err
		}
		if err := s.repo.AppendHistoryTx(ctx, tx, &model.StatusHistory{
			OrderID:   order.ID,
			Status:    string(target),
			Note:      req.Note,
			UpdatedBy: &adminID,
		}); err != nil {
			return err
		}

		// Admin cancellation of a confirmed order releases reserved stock.
		if target == model.OrderStatusCancelled && current == model.OrderStatusConfirmed {
			ids, err := s.inventory.ReleaseStockTx(ctx, tx, order.ID, reservationItems(order.Items))
			if err != nil {
				return err
			}
			productIDs = ids
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.enqueueSyncs(productIDs, "RELEASE")

	return order.ToResponse(now), nil
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *service) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	return s.repo.CountByCustomer(ctx, customerID)
}

// enqueueSyncs schedules product aggregate recomputation after commit. A
// failed enqueue only delays the aggregate; the movements are the source of
// truth.
func (s *service) enqueueSyncs(productIDs []uuid.UUID, source string) {
	for _, id := range productIDs {
		task, err := utils.MarshalTask(shared.TypeCatalogSyncProductStock, shared.CatalogSyncPayload{
			ProductID: id.String(),
			Source:    source,
		})
		if err != nil {
			logger.Error("failed to marshal catalog sync task", err)
			continue
		}
		if _, err := s.queue.Enqueue(task, asynq.Queue(shared.QueueCatalog), asynq.MaxRetry(5)); err != nil {
			logger.Error("failed to enqueue catalog sync task", err)
		}
	}
}

func toResponses(orders []model.Order) []model.OrderResponse {
	now := time.Now()
	responses := make([]model.OrderResponse, len(orders))
	for i := range orders {
		responses[i] = *orders[i].ToResponse(now)
	}
	return responses
}
