package provider

import (
	"github.com/cruisemall-server/internal/authz"
	"github.com/cruisemall-server/internal/cache"
	"github.com/cruisemall-server/internal/config"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/queue"
	"github.com/cruisemall-server/internal/repository"
	"github.com/cruisemall-server/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo      repository.AdminRepository
	ProfileRepo    repository.ProfileRepository
	LeadRepo       repository.LeadRepository
	SaleRepo       repository.SaleRepository
	LedgerRepo     repository.LedgerRepository
	TierRepo       repository.TierRepository
	MallUserRepo   repository.MallUserRepository
	SettlementRepo repository.SettlementRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	Resolver          *service.AttributionResolver
	ProfileService    *service.ProfileService
	LeadService       *service.LeadService
	TierService       *service.TierService
	SaleService       *service.SaleService
	SettlementService *service.SettlementService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.ProfileRepo = repository.NewProfileRepository(db)
	c.LeadRepo = repository.NewLeadRepository(db)
	c.SaleRepo = repository.NewSaleRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.TierRepo = repository.NewTierRepository(db)
	c.MallUserRepo = repository.NewMallUserRepository(db)
	c.SettlementRepo = repository.NewSettlementRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	affiliate := c.Config.Affiliate

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.Resolver = service.NewAttributionResolver(c.ProfileRepo, c.MallUserRepo, c.LeadRepo, affiliate.PhoneRegion)
	c.ProfileService = service.NewProfileService(c.ProfileRepo, c.LedgerRepo, affiliate.PhoneRegion)
	c.LeadService = service.NewLeadService(c.LeadRepo, c.Resolver, affiliate.PhoneRegion)
	c.TierService = service.NewTierService(c.TierRepo, affiliate.TierCacheTTLSeconds)
	c.SaleService = service.NewSaleService(c.SaleRepo, c.LedgerRepo, c.LeadService, c.TierService, c.Resolver, c.QueueClient)
	c.SettlementService = service.NewSettlementService(c.SettlementRepo, c.LedgerRepo, affiliate.SettlementBatchSize, affiliate.SettlementHoldDays)
}
