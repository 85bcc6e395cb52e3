package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cruisemall-server/internal/cache"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/repository"
	"github.com/shopspring/decimal"
)

const tierCacheKeyPrefix = "tier:cabin:"

// TierService 佣金档位服务
// 读路径带 Redis 缓存，写路径失效缓存；舱型未命中回退兜底档位，
// 无任何可用档位时返回零比例上下文（销售仍可落库，佣金为零）
type TierService struct {
	repo     repository.TierRepository
	cacheTTL time.Duration
}

// NewTierService 创建佣金档位服务
func NewTierService(repo repository.TierRepository, cacheTTLSeconds int) *TierService {
	ttl := time.Duration(cacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TierService{repo: repo, cacheTTL: ttl}
}

// tierCacheItem 缓存载体（比例按字符串存储避免浮点失真）
type tierCacheItem struct {
	CabinType              string `json:"cabin_type"`
	ManagerRatePercent     string `json:"manager_rate_percent"`
	AgentRatePercent       string `json:"agent_rate_percent"`
	OverrideRatePercent    string `json:"override_rate_percent"`
	WithholdingRatePercent string `json:"withholding_rate_percent"`
}

// GetTierContext 按舱型获取佣金档位上下文
func (s *TierService) GetTierContext(ctx context.Context, cabinType string) (TierContext, error) {
	normalized := strings.ToUpper(strings.TrimSpace(cabinType))
	cacheKey := tierCacheKeyPrefix + normalized
	if normalized == "" {
		cacheKey = tierCacheKeyPrefix + "_default"
	}

	var cached tierCacheItem
	hit, err := cache.GetJSON(ctx, cacheKey, &cached)
	if err != nil {
		logger.Warnw("tier_cache_read_failed", "cabin_type", normalized, "error", err)
	}
	if hit {
		if tierCtx, ok := parseTierCacheItem(cached); ok {
			return tierCtx, nil
		}
	}

	tier, err := s.lookupTier(normalized)
	if err != nil {
		return TierContext{}, err
	}
	if tier == nil {
		logger.Warnw("tier_not_configured", "cabin_type", normalized)
		return TierContext{CabinType: normalized}, nil
	}

	tierCtx := TierContext{
		CabinType:              tier.CabinType,
		ManagerRatePercent:     tier.ManagerRatePercent.Decimal,
		AgentRatePercent:       tier.AgentRatePercent.Decimal,
		OverrideRatePercent:    tier.OverrideRatePercent.Decimal,
		WithholdingRatePercent: tier.WithholdingRatePercent.Decimal,
	}
	if err := cache.SetJSON(ctx, cacheKey, tierCacheItem{
		CabinType:              tierCtx.CabinType,
		ManagerRatePercent:     tierCtx.ManagerRatePercent.String(),
		AgentRatePercent:       tierCtx.AgentRatePercent.String(),
		OverrideRatePercent:    tierCtx.OverrideRatePercent.String(),
		WithholdingRatePercent: tierCtx.WithholdingRatePercent.String(),
	}, s.cacheTTL); err != nil {
		logger.Warnw("tier_cache_write_failed", "cabin_type", normalized, "error", err)
	}
	return tierCtx, nil
}

func (s *TierService) lookupTier(cabinType string) (*models.CommissionTier, error) {
	if cabinType != "" {
		tier, err := s.repo.GetByCabinType(cabinType)
		if err != nil {
			return nil, err
		}
		if tier != nil {
			return tier, nil
		}
	}
	return s.repo.GetDefault()
}

func parseTierCacheItem(item tierCacheItem) (TierContext, bool) {
	manager, err := decimal.NewFromString(item.ManagerRatePercent)
	if err != nil {
		return TierContext{}, false
	}
	agent, err := decimal.NewFromString(item.AgentRatePercent)
	if err != nil {
		return TierContext{}, false
	}
	override, err := decimal.NewFromString(item.OverrideRatePercent)
	if err != nil {
		return TierContext{}, false
	}
	withholding, err := decimal.NewFromString(item.WithholdingRatePercent)
	if err != nil {
		return TierContext{}, false
	}
	return TierContext{
		CabinType:              item.CabinType,
		ManagerRatePercent:     manager,
		AgentRatePercent:       agent,
		OverrideRatePercent:    override,
		WithholdingRatePercent: withholding,
	}, true
}

// TierUpsertInput 档位创建/更新输入
type TierUpsertInput struct {
	CabinType              string
	ManagerRatePercent     decimal.Decimal
	AgentRatePercent       decimal.Decimal
	OverrideRatePercent    decimal.Decimal
	WithholdingRatePercent decimal.Decimal
	IsDefault              bool
}

func (in TierUpsertInput) validate() error {
	if strings.TrimSpace(in.CabinType) == "" {
		return fmt.Errorf("%w: cabin_type 不能为空", ErrInvalidInput)
	}
	for _, rate := range []decimal.Decimal{
		in.ManagerRatePercent,
		in.AgentRatePercent,
		in.OverrideRatePercent,
		in.WithholdingRatePercent,
	} {
		if rate.IsNegative() || rate.GreaterThan(percentBase) {
			return fmt.Errorf("%w: 比例必须在 0-100 之间", ErrInvalidInput)
		}
	}
	return nil
}

// CreateTier 创建佣金档位
func (s *TierService) CreateTier(ctx context.Context, input TierUpsertInput) (*models.CommissionTier, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	tier := &models.CommissionTier{
		CabinType:              strings.ToUpper(strings.TrimSpace(input.CabinType)),
		ManagerRatePercent:     models.NewMoneyFromDecimal(input.ManagerRatePercent),
		AgentRatePercent:       models.NewMoneyFromDecimal(input.AgentRatePercent),
		OverrideRatePercent:    models.NewMoneyFromDecimal(input.OverrideRatePercent),
		WithholdingRatePercent: models.NewMoneyFromDecimal(input.WithholdingRatePercent),
		IsDefault:              input.IsDefault,
	}
	if err := s.repo.Create(tier); err != nil {
		return nil, err
	}
	if tier.IsDefault {
		if err := s.repo.ClearDefaultExcept(tier.ID); err != nil {
			return nil, err
		}
	}
	s.invalidateCache(ctx, tier.CabinType)
	return tier, nil
}

// UpdateTier 更新佣金档位
func (s *TierService) UpdateTier(ctx context.Context, id uint, input TierUpsertInput) (*models.CommissionTier, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	tier, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, ErrNotFound
	}

	previousCabinType := tier.CabinType
	tier.CabinType = strings.ToUpper(strings.TrimSpace(input.CabinType))
	tier.ManagerRatePercent = models.NewMoneyFromDecimal(input.ManagerRatePercent)
	tier.AgentRatePercent = models.NewMoneyFromDecimal(input.AgentRatePercent)
	tier.OverrideRatePercent = models.NewMoneyFromDecimal(input.OverrideRatePercent)
	tier.WithholdingRatePercent = models.NewMoneyFromDecimal(input.WithholdingRatePercent)
	tier.IsDefault = input.IsDefault
	if err := s.repo.Update(tier); err != nil {
		return nil, err
	}
	if tier.IsDefault {
		if err := s.repo.ClearDefaultExcept(tier.ID); err != nil {
			return nil, err
		}
	}
	s.invalidateCache(ctx, previousCabinType)
	s.invalidateCache(ctx, tier.CabinType)
	return tier, nil
}

// DeleteTier 删除佣金档位
func (s *TierService) DeleteTier(ctx context.Context, id uint) error {
	tier, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if tier == nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.invalidateCache(ctx, tier.CabinType)
	return nil
}

// ListTiers 获取档位列表
func (s *TierService) ListTiers() ([]models.CommissionTier, error) {
	return s.repo.List()
}

func (s *TierService) invalidateCache(ctx context.Context, cabinType string) {
	keys := []string{
		tierCacheKeyPrefix + strings.ToUpper(strings.TrimSpace(cabinType)),
		tierCacheKeyPrefix + "_default",
	}
	for _, key := range keys {
		if err := cache.Del(ctx, key); err != nil {
			logger.Warnw("tier_cache_invalidate_failed", "key", key, "error", err)
		}
	}
}
