package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/repository"
	"gorm.io/gorm"
)

// leadStatusTransitions 潜客状态流转表
var leadStatusTransitions = map[string][]string{
	constants.LeadStatusNew: {
		constants.LeadStatusContacted,
		constants.LeadStatusInProgress,
		constants.LeadStatusPurchased,
		constants.LeadStatusClosed,
	},
	constants.LeadStatusContacted: {
		constants.LeadStatusInProgress,
		constants.LeadStatusPurchased,
		constants.LeadStatusClosed,
	},
	constants.LeadStatusInProgress: {
		constants.LeadStatusPurchased,
		constants.LeadStatusRefunded,
		constants.LeadStatusClosed,
	},
	constants.LeadStatusPurchased: {
		constants.LeadStatusRefunded,
	},
}

func canTransitionLead(from, to string) bool {
	for _, allowed := range leadStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// LeadService 潜客业务服务
// 潜客归属在创建时经归因解析固定一次，之后不随层级调整重新推导
type LeadService struct {
	repo        repository.LeadRepository
	resolver    *AttributionResolver
	phoneRegion string
}

// NewLeadService 创建潜客服务
func NewLeadService(repo repository.LeadRepository, resolver *AttributionResolver, phoneRegion string) *LeadService {
	return &LeadService{repo: repo, resolver: resolver, phoneRegion: phoneRegion}
}

// LeadCreateInput 潜客创建输入
type LeadCreateInput struct {
	CustomerName  string
	CustomerPhone string
	Memo          string
	AgentID       uint
	ManagerID     uint
	AffiliateCode string
	MallUserKey   string
}

// CreateLead 创建潜客，归属经归因解析一次后固定
func (s *LeadService) CreateLead(input LeadCreateInput) (*models.AffiliateLead, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, fmt.Errorf("%w: customer_name 不能为空", ErrInvalidInput)
	}

	hints := make([]AttributionHint, 0, 4)
	if input.AgentID != 0 {
		hints = append(hints, ExplicitAgentHint{ProfileID: input.AgentID})
	}
	if input.ManagerID != 0 {
		hints = append(hints, ExplicitManagerHint{ProfileID: input.ManagerID})
	}
	if strings.TrimSpace(input.AffiliateCode) != "" {
		hints = append(hints, AffiliateCodeHint{Code: input.AffiliateCode})
	}
	if strings.TrimSpace(input.MallUserKey) != "" {
		hints = append(hints, MallUserHint{UserKey: input.MallUserKey})
	}
	attribution, err := s.resolver.Resolve(hints)
	if err != nil {
		return nil, err
	}

	phone := normalizePhone(input.CustomerPhone, s.phoneRegion)
	if phone == "" {
		phone = strings.TrimSpace(input.CustomerPhone)
	}

	lead := &models.AffiliateLead{
		CustomerName:     name,
		CustomerPhone:    phone,
		ManagerProfileID: attribution.ManagerProfileID,
		AgentProfileID:   attribution.AgentProfileID,
		Status:           constants.LeadStatusNew,
		Memo:             strings.TrimSpace(input.Memo),
	}
	if err := s.repo.Create(lead); err != nil {
		return nil, err
	}
	logger.Infow("lead_created",
		"lead_id", lead.ID,
		"attribution_source", attribution.Source,
	)
	return lead, nil
}

// GetLead 获取潜客详情
func (s *LeadService) GetLead(id uint) (*models.AffiliateLead, error) {
	lead, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrNotFound
	}
	return lead, nil
}

// ListLeads 查询潜客列表
func (s *LeadService) ListLeads(filter repository.LeadListFilter) ([]models.AffiliateLead, int64, error) {
	return s.repo.List(filter)
}

// UpdateLeadStatus 更新潜客状态（按流转表校验）
func (s *LeadService) UpdateLeadStatus(id uint, rawStatus string) (*models.AffiliateLead, error) {
	status := strings.TrimSpace(rawStatus)
	var updated *models.AffiliateLead
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lead, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if lead == nil {
			return ErrNotFound
		}
		if lead.Status == status {
			updated = lead
			return nil
		}
		if !canTransitionLead(lead.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, lead.Status, status)
		}
		lead.Status = status
		if status == constants.LeadStatusPurchased && lead.PurchasedAt == nil {
			now := time.Now()
			lead.PurchasedAt = &now
		}
		if err := repo.Update(lead); err != nil {
			return err
		}
		updated = lead
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkPurchased 销售落库后的潜客成交标记（幂等副作用）
// 已成交的潜客重复标记为空操作；已终态潜客跳过并记录日志，绝不向上传播失败
func (s *LeadService) MarkPurchased(leadID, saleID uint) error {
	return s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lead, err := repo.GetByIDForUpdate(leadID)
		if err != nil {
			return err
		}
		if lead == nil {
			return ErrNotFound
		}
		if lead.Status == constants.LeadStatusPurchased {
			return nil
		}
		if !canTransitionLead(lead.Status, constants.LeadStatusPurchased) {
			logger.Warnw("lead_mark_purchased_skipped",
				"lead_id", leadID,
				"sale_id", saleID,
				"status", lead.Status,
			)
			return nil
		}
		now := time.Now()
		lead.Status = constants.LeadStatusPurchased
		lead.PurchasedAt = &now
		if err := repo.Update(lead); err != nil {
			return err
		}
		logger.Infow("lead_marked_purchased", "lead_id", leadID, "sale_id", saleID)
		return nil
	})
}
