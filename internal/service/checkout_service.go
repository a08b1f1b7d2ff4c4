package service

import (
	"sort"
	"time"

	"github.com/chogo-next/internal/constants"
	"github.com/chogo-next/internal/eventbus"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/queue"
	"github.com/chogo-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutService turns a cart selection into an order. The whole checkout
// is one transaction: stock reservation, voucher redemption, and order rows
// commit together or not at all.
type CheckoutService struct {
	orderRepo     repository.OrderRepository
	subOrderRepo  repository.SubOrderRepository
	cartRepo      repository.CartRepository
	trackingRepo  repository.TrackingRepository
	inventorySvc  *InventoryService
	voucherSvc    *VoucherService
	paymentSvc    *PaymentService
	shippingCalc  ShippingCalculator
	queueClient   *queue.Client
	producer      *eventbus.Producer
	currency      string
	expireMinutes int
}

// NewCheckoutService creates the checkout service
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	subOrderRepo repository.SubOrderRepository,
	cartRepo repository.CartRepository,
	trackingRepo repository.TrackingRepository,
	inventorySvc *InventoryService,
	voucherSvc *VoucherService,
	paymentSvc *PaymentService,
	shippingCalc ShippingCalculator,
	queueClient *queue.Client,
	producer *eventbus.Producer,
	currency string,
	expireMinutes int,
) *CheckoutService {
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	if expireMinutes <= 0 {
		expireMinutes = constants.DefaultPaymentExpireMinutes
	}
	return &CheckoutService{
		orderRepo:     orderRepo,
		subOrderRepo:  subOrderRepo,
		cartRepo:      cartRepo,
		trackingRepo:  trackingRepo,
		inventorySvc:  inventorySvc,
		voucherSvc:    voucherSvc,
		paymentSvc:    paymentSvc,
		shippingCalc:  shippingCalc,
		queueClient:   queueClient,
		producer:      producer,
		currency:      currency,
		expireMinutes: expireMinutes,
	}
}

// CheckoutInput checkout request
type CheckoutInput struct {
	UserID            uint
	CartItemIDs       []uint
	PaymentMethod     string
	VoucherCode       string
	ShippingAddressID uint
	CustomerNote      string
	IdempotencyKey    string
	ClientIP          string
}

// CheckoutResult checkout response
type CheckoutResult struct {
	Order    *models.Order
	PayURL   string
	Replayed bool
}

// shopGroup one shop's slice of the cart during checkout assembly
type shopGroup struct {
	ShopID   uint
	Items    []models.OrderItem
	Lines    []ReservationLine
	Subtotal decimal.Decimal
	Units    int
}

// Checkout places an order from the selected cart lines.
func (s *CheckoutService) Checkout(input CheckoutInput) (*CheckoutResult, error) {
	if input.UserID == 0 || len(input.CartItemIDs) == 0 {
		return nil, ErrEmptyCheckout
	}
	if !supportedPaymentMethod(input.PaymentMethod) {
		return nil, ErrPaymentMethodNotOK
	}

	// Replay: the same key returns the original order untouched.
	if existing, err := s.orderRepo.GetByIdempotencyKey(input.UserID, input.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return &CheckoutResult{Order: existing, Replayed: true}, nil
	}

	cartItems, err := s.cartRepo.ListByUserAndIDs(input.UserID, input.CartItemIDs)
	if err != nil {
		return nil, err
	}
	if len(cartItems) != len(input.CartItemIDs) {
		return nil, ErrInvalidOrderItem
	}

	groups, err := groupByShop(cartItems)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	subtotal := decimal.Zero
	shippingTotal := decimal.Zero
	shopSubtotals := make(map[uint]models.Money, len(groups))
	for i := range groups {
		subtotal = subtotal.Add(groups[i].Subtotal)
		fee := s.shippingCalc.Fee(groups[i].ShopID, groups[i].Units)
		shippingTotal = shippingTotal.Add(fee.Decimal)
		shopSubtotals[groups[i].ShopID] = models.NewMoneyFromDecimal(groups[i].Subtotal)
	}

	var quote *VoucherQuote
	discount := decimal.Zero
	if input.VoucherCode != "" {
		quote, err = s.voucherSvc.Quote(input.VoucherCode, input.UserID, models.NewMoneyFromDecimal(subtotal), shopSubtotals, now)
		if err != nil {
			return nil, err
		}
		discount = quote.Discount.Decimal
	}
	grandTotal := subtotal.Add(shippingTotal).Sub(discount)
	if grandTotal.IsNegative() {
		grandTotal = decimal.Zero
	}

	order := &models.Order{
		OrderNo:           generateOrderNo(),
		UserID:            input.UserID,
		IdempotencyKey:    input.IdempotencyKey,
		Status:            constants.OrderStatusPendingPayment,
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     constants.PaymentStatusPending,
		Currency:          s.currency,
		Subtotal:          models.NewMoneyFromDecimal(subtotal),
		ShippingTotal:     models.NewMoneyFromDecimal(shippingTotal),
		DiscountTotal:     models.NewMoneyFromDecimal(discount),
		GrandTotal:        models.NewMoneyFromDecimal(grandTotal),
		ShippingAddressID: input.ShippingAddressID,
		CustomerNote:      input.CustomerNote,
	}
	if quote != nil {
		order.VoucherID = &quote.Voucher.ID
	}
	gatewayMethod := input.PaymentMethod == constants.PaymentMethodVNPay ||
		input.PaymentMethod == constants.PaymentMethodMoMo
	if gatewayMethod {
		expiresAt := now.Add(time.Duration(s.expireMinutes) * time.Minute)
		order.ExpiresAt = &expiresAt
	}

	for i := range groups {
		fee := s.shippingCalc.Fee(groups[i].ShopID, groups[i].Units)
		order.SubOrders = append(order.SubOrders, models.SubOrder{
			SubOrderNo:  generateSubOrderNo(order.OrderNo, i),
			ShopID:      groups[i].ShopID,
			Status:      constants.SubOrderStatusPending,
			Subtotal:    models.NewMoneyFromDecimal(groups[i].Subtotal),
			ShippingFee: fee,
			Items:       groups[i].Items,
		})
	}

	var allLines []ReservationLine
	for i := range groups {
		allLines = append(allLines, groups[i].Lines...)
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.inventorySvc.Reserve(tx, allLines); err != nil {
			return err
		}
		subOrders := order.SubOrders
		order.SubOrders = nil
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		for i := range subOrders {
			subOrders[i].OrderID = order.ID
			// Items carry the parent order id for direct lookups.
			for j := range subOrders[i].Items {
				subOrders[i].Items[j].OrderID = order.ID
			}
			if err := tx.Create(&subOrders[i]).Error; err != nil {
				return err
			}
		}
		order.SubOrders = subOrders
		if quote != nil {
			if err := s.voucherSvc.Redeem(tx, quote, input.UserID, order.ID); err != nil {
				return err
			}
		}
		trackingRepo := s.trackingRepo.WithTx(tx)
		for i := range order.SubOrders {
			event := &models.TrackingEvent{
				SubOrderID: order.SubOrders[i].ID,
				OrderID:    order.ID,
				EventType:  constants.TrackingEventOrderPlaced,
				ToStatus:   constants.SubOrderStatusPending,
				ActorID:    input.UserID,
				ActorRole:  constants.RoleCustomer,
			}
			if err := trackingRepo.Create(event); err != nil {
				return err
			}
		}
		if err := s.paymentSvc.settleAtCheckout(tx, order, now); err != nil {
			return err
		}
		return s.cartRepo.WithTx(tx).DeleteByUserAndIDs(input.UserID, input.CartItemIDs)
	})
	if err != nil {
		return nil, err
	}

	payURL := ""
	if gatewayMethod {
		payURL, err = s.paymentSvc.InitiateGatewayPayment(order, input.ClientIP)
		if err != nil {
			// The order stands; the client can retry payment initiation
			// until the session expires.
			logger.Warnw("checkout_payment_initiation_failed",
				"order_no", order.OrderNo,
				"method", input.PaymentMethod,
				"error", err,
			)
		}
		if s.queueClient != nil {
			delay := time.Until(*order.ExpiresAt)
			if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, delay); err != nil {
				logger.Warnw("checkout_timeout_task_enqueue_failed", "order_id", order.ID, "error", err)
			}
		}
	}

	s.publishOrderCreated(order)
	logger.Infow("checkout_completed",
		"order_no", order.OrderNo,
		"user_id", input.UserID,
		"method", input.PaymentMethod,
		"sub_orders", len(order.SubOrders),
		"grand_total", order.GrandTotal.String(),
	)
	return &CheckoutResult{Order: order, PayURL: payURL}, nil
}

// groupByShop partitions cart lines into per-shop groups with price
// snapshots. Groups are ordered by shop id so sub-order numbering is stable.
func groupByShop(cartItems []models.CartItem) ([]shopGroup, error) {
	byShop := make(map[uint]*shopGroup)
	for _, item := range cartItems {
		if item.Quantity <= 0 {
			return nil, ErrQuantityInvalid
		}
		variant := item.Variant
		if variant == nil || variant.Product == nil {
			return nil, ErrInvalidOrderItem
		}
		if !variant.IsActive || !variant.Product.IsActive {
			return nil, ErrVariantInactive
		}
		shopID := variant.Product.ShopID
		group, ok := byShop[shopID]
		if !ok {
			group = &shopGroup{ShopID: shopID, Subtotal: decimal.Zero}
			byShop[shopID] = group
		}
		lineTotal := variant.PriceAmount.Mul(decimal.NewFromInt(int64(item.Quantity)))
		group.Items = append(group.Items, models.OrderItem{
			ProductID:   variant.ProductID,
			VariantID:   variant.ID,
			ProductName: variant.Product.Name,
			VariantName: variant.Name,
			UnitPrice:   variant.PriceAmount,
			Quantity:    item.Quantity,
			TotalPrice:  models.NewMoneyFromDecimal(lineTotal),
		})
		group.Lines = append(group.Lines, ReservationLine{VariantID: variant.ID, Quantity: item.Quantity})
		group.Subtotal = group.Subtotal.Add(lineTotal)
		group.Units += item.Quantity
	}

	groups := make([]shopGroup, 0, len(byShop))
	for _, group := range byShop {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ShopID < groups[j].ShopID })
	return groups, nil
}

func supportedPaymentMethod(method string) bool {
	switch method {
	case constants.PaymentMethodCOD,
		constants.PaymentMethodVNPay,
		constants.PaymentMethodMoMo,
		constants.PaymentMethodWallet:
		return true
	}
	return false
}

func (s *CheckoutService) publishOrderCreated(order *models.Order) {
	if s.producer == nil {
		return
	}
	briefs := make([]eventbus.SubOrderBrief, 0, len(order.SubOrders))
	for i := range order.SubOrders {
		briefs = append(briefs, eventbus.SubOrderBrief{
			SubOrderID: order.SubOrders[i].ID,
			SubOrderNo: order.SubOrders[i].SubOrderNo,
			ShopID:     order.SubOrders[i].ShopID,
			Subtotal:   order.SubOrders[i].Subtotal.String(),
		})
	}
	s.producer.Publish(
		constants.TopicOrderCreated,
		eventbus.EventOrderCreated,
		eventbus.PartitionKey(order.ID),
		eventbus.OrderCreatedPayload{
			OrderID:    order.ID,
			OrderNo:    order.OrderNo,
			UserID:     order.UserID,
			GrandTotal: order.GrandTotal.String(),
			Currency:   order.Currency,
			SubOrders:  briefs,
		},
	)
}
