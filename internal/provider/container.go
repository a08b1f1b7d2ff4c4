package provider

import (
	"github.com/chogo-next/internal/authz"
	"github.com/chogo-next/internal/cache"
	"github.com/chogo-next/internal/config"
	"github.com/chogo-next/internal/eventbus"
	"github.com/chogo-next/internal/logger"
	"github.com/chogo-next/internal/models"
	"github.com/chogo-next/internal/queue"
	"github.com/chogo-next/internal/repository"
	"github.com/chogo-next/internal/service"
)

// Container wires repositories and services for the HTTP and worker layers
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Producer    *eventbus.Producer

	// Repositories
	OrderRepo           repository.OrderRepository
	SubOrderRepo        repository.SubOrderRepository
	ProductRepo         repository.ProductRepository
	VariantRepo         repository.VariantRepository
	ShopRepo            repository.ShopRepository
	CartRepo            repository.CartRepository
	VoucherRepo         repository.VoucherRepository
	VoucherUsageRepo    repository.VoucherUsageRepository
	ReturnRepo          repository.ReturnRepository
	TrackingRepo        repository.TrackingRepository
	PaymentRepo         repository.PaymentRepository
	WalletRepo          repository.WalletRepository
	StockAdjustmentRepo repository.StockAdjustmentRepository

	// Services
	AuthzService        *authz.Service
	InventoryService    *service.InventoryService
	VoucherService      *service.VoucherService
	VoucherAdminService *service.VoucherAdminService
	WalletService       *service.WalletService
	PaymentService      *service.PaymentService
	CartService         *service.CartService
	CheckoutService     *service.CheckoutService
	OrderService        *service.OrderService
	FulfillmentService  *service.FulfillmentService
	ReturnService       *service.ReturnService
	ProductService      *service.ProductService
}

// NewContainer initializes the container
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	var brokers []string
	if cfg.Kafka.Enabled {
		brokers = cfg.Kafka.Brokers
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Producer:    eventbus.NewProducer(brokers, 0),
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SubOrderRepo = repository.NewSubOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewVariantRepository(db)
	c.ShopRepo = repository.NewShopRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.VoucherUsageRepo = repository.NewVoucherUsageRepository(db)
	c.ReturnRepo = repository.NewReturnRepository(db)
	c.TrackingRepo = repository.NewTrackingRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.StockAdjustmentRepo = repository.NewStockAdjustmentRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := authz.Bootstrap(c.AuthzService); err != nil {
		logger.Errorw("provider_seed_authz_grants_failed", "error", err)
		panic(err)
	}

	c.InventoryService = service.NewInventoryService(
		c.VariantRepo, c.ProductRepo, c.StockAdjustmentRepo, c.Producer,
		c.Config.Order.LowStockThreshold,
	)
	c.VoucherService = service.NewVoucherService(c.VoucherRepo, c.VoucherUsageRepo)
	c.VoucherAdminService = service.NewVoucherAdminService(c.VoucherRepo, c.ShopRepo)
	c.WalletService = service.NewWalletService(c.WalletRepo, c.Config.Site.Currency)
	c.PaymentService = service.NewPaymentService(
		c.OrderRepo, c.SubOrderRepo, c.PaymentRepo, c.TrackingRepo,
		c.WalletService, c.InventoryService, c.VoucherService, c.Producer,
		&c.Config.Payment, c.Config.Order.PaymentExpireMinutes,
	)
	c.CartService = service.NewCartService(c.CartRepo, c.VariantRepo)
	c.CheckoutService = service.NewCheckoutService(
		c.OrderRepo, c.SubOrderRepo, c.CartRepo, c.TrackingRepo,
		c.InventoryService, c.VoucherService, c.PaymentService,
		service.NewFlatShippingCalculator(&c.Config.Shipping),
		c.QueueClient, c.Producer,
		c.Config.Site.Currency, c.Config.Order.PaymentExpireMinutes,
	)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.SubOrderRepo, c.TrackingRepo, c.PaymentService)
	c.FulfillmentService = service.NewFulfillmentService(
		c.OrderRepo, c.SubOrderRepo, c.ShopRepo, c.TrackingRepo,
		c.PaymentService, c.AuthzService, c.QueueClient, c.Producer,
		c.Config.Order.ReturnWindowDays, c.Config.Order.AutoConfirmDays,
	)
	c.ReturnService = service.NewReturnService(
		c.OrderRepo, c.SubOrderRepo, c.ReturnRepo, c.WalletService, c.FulfillmentService,
	)
	c.ProductService = service.NewProductService(c.ProductRepo, c.VariantRepo, c.ShopRepo, c.InventoryService)
}
