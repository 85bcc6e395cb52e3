package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/repository"
	"gorm.io/gorm"
)

const affiliateCodeLength = 8

// ProfileService 推广档案与层级关系服务
type ProfileService struct {
	repo        repository.ProfileRepository
	ledgerRepo  repository.LedgerRepository
	phoneRegion string
}

// NewProfileService 创建推广档案服务
func NewProfileService(repo repository.ProfileRepository, ledgerRepo repository.LedgerRepository, phoneRegion string) *ProfileService {
	return &ProfileService{repo: repo, ledgerRepo: ledgerRepo, phoneRegion: phoneRegion}
}

// ProfileCreateInput 档案创建输入
type ProfileCreateInput struct {
	ProfileType string
	DisplayName string
	Phone       string
}

// CreateProfile 创建推广档案，联盟短ID自动生成，冲突重试
func (s *ProfileService) CreateProfile(input ProfileCreateInput) (*models.AffiliateProfile, error) {
	profileType := strings.TrimSpace(input.ProfileType)
	switch profileType {
	case constants.AffiliateProfileTypeHQ,
		constants.AffiliateProfileTypeBranchManager,
		constants.AffiliateProfileTypeSalesAgent:
	default:
		return nil, fmt.Errorf("%w: 未知档案类型 %s", ErrInvalidInput, profileType)
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display_name 不能为空", ErrInvalidInput)
	}

	phone := normalizePhone(input.Phone, s.phoneRegion)
	if phone == "" {
		phone = strings.TrimSpace(input.Phone)
	}

	const maxRetry = 8
	for i := 0; i < maxRetry; i++ {
		code, genErr := generateAffiliateCode()
		if genErr != nil {
			return nil, genErr
		}
		profile := &models.AffiliateProfile{
			ProfileType:   profileType,
			DisplayName:   displayName,
			AffiliateCode: code,
			Phone:         phone,
			Status:        constants.AffiliateProfileStatusActive,
		}
		if err := s.repo.Create(profile); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		logger.Infow("affiliate_profile_created",
			"profile_id", profile.ID,
			"profile_type", profileType,
			"affiliate_code", code,
		)
		return profile, nil
	}
	return nil, fmt.Errorf("%w: 联盟短ID生成重试耗尽", ErrInvalidInput)
}

// GetProfile 获取档案详情
func (s *ProfileService) GetProfile(id uint) (*models.AffiliateProfile, error) {
	profile, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// ProfileDetail 档案详情（含当前归属与台账汇总）
type ProfileDetail struct {
	Profile        models.AffiliateProfile `json:"profile"`
	ActiveManager  *models.AffiliateProfile `json:"active_manager,omitempty"`
	RelationHistory []models.AgentRelation  `json:"relation_history,omitempty"`
	EntryCount     int64                    `json:"entry_count"`
	GrossAmount    models.Money             `json:"gross_amount"`
	WithheldAmount models.Money             `json:"withheld_amount"`
	UnsettledAmount models.Money            `json:"unsettled_amount"`
}

// GetProfileDetail 获取档案详情与台账汇总
func (s *ProfileService) GetProfileDetail(id uint) (*ProfileDetail, error) {
	profile, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}

	detail := &ProfileDetail{Profile: *profile}
	if profile.ProfileType == constants.AffiliateProfileTypeSalesAgent {
		relation, err := s.repo.GetActiveRelationByAgent(id)
		if err != nil {
			return nil, err
		}
		if relation != nil {
			manager := relation.Manager
			detail.ActiveManager = &manager
		}
		history, err := s.repo.ListRelationsByAgent(id)
		if err != nil {
			return nil, err
		}
		detail.RelationHistory = history
	}

	aggregate, err := s.ledgerRepo.SumByProfile(id)
	if err != nil {
		return nil, err
	}
	detail.EntryCount = aggregate.EntryCount
	detail.GrossAmount = models.NewMoneyFromDecimal(aggregate.GrossAmount)
	detail.WithheldAmount = models.NewMoneyFromDecimal(aggregate.WithholdingAmount)
	detail.UnsettledAmount = models.NewMoneyFromDecimal(aggregate.UnsettledAmount)
	return detail, nil
}

// ListProfiles 查询档案列表
func (s *ProfileService) ListProfiles(filter repository.ProfileListFilter) ([]models.AffiliateProfile, int64, error) {
	return s.repo.List(filter)
}

// UpdateProfileStatus 启用/停用档案
func (s *ProfileService) UpdateProfileStatus(id uint, rawStatus string) (*models.AffiliateProfile, error) {
	status := strings.TrimSpace(rawStatus)
	if status != constants.AffiliateProfileStatusActive && status != constants.AffiliateProfileStatusInactive {
		return nil, fmt.Errorf("%w: 未知档案状态 %s", ErrInvalidInput, status)
	}
	profile, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}
	if profile.Status == status {
		return profile, nil
	}
	if err := s.repo.UpdateStatus(id, status, time.Now()); err != nil {
		return nil, err
	}
	return s.GetProfile(id)
}

// AssignAgent 将销售员划入分店长名下
// 旧的生效关系置为 ended 保留历史，同一事务内建立新关系
func (s *ProfileService) AssignAgent(agentProfileID, managerProfileID uint) (*models.AgentRelation, error) {
	agent, err := s.repo.GetByID(agentProfileID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrNotFound
	}
	if agent.ProfileType != constants.AffiliateProfileTypeSalesAgent {
		return nil, fmt.Errorf("%w: 档案 %d 不是销售员", ErrProfileType, agentProfileID)
	}
	if agent.Status != constants.AffiliateProfileStatusActive {
		return nil, ErrProfileInactive
	}

	manager, err := s.repo.GetByID(managerProfileID)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, ErrNotFound
	}
	if manager.ProfileType != constants.AffiliateProfileTypeBranchManager {
		return nil, fmt.Errorf("%w: 档案 %d 不是分店长", ErrProfileType, managerProfileID)
	}
	if manager.Status != constants.AffiliateProfileStatusActive {
		return nil, ErrProfileInactive
	}

	var relation *models.AgentRelation
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetActiveRelationByAgentForUpdate(agentProfileID)
		if err != nil {
			return err
		}
		if current != nil && current.ManagerProfileID == managerProfileID {
			relation = current
			return nil
		}
		now := time.Now()
		if _, err := repo.EndActiveRelations(agentProfileID, now); err != nil {
			return err
		}
		relation = &models.AgentRelation{
			AgentProfileID:   agentProfileID,
			ManagerProfileID: managerProfileID,
			Status:           constants.AgentRelationStatusActive,
			StartedAt:        now,
		}
		return repo.CreateRelation(relation)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("agent_assigned",
		"agent_profile_id", agentProfileID,
		"manager_profile_id", managerProfileID,
	)
	return relation, nil
}

// UnassignAgent 解除销售员当前归属（历史保留）
func (s *ProfileService) UnassignAgent(agentProfileID uint) error {
	agent, err := s.repo.GetByID(agentProfileID)
	if err != nil {
		return err
	}
	if agent == nil {
		return ErrNotFound
	}
	affected, err := s.repo.EndActiveRelations(agentProfileID, time.Now())
	if err != nil {
		return err
	}
	logger.Infow("agent_unassigned",
		"agent_profile_id", agentProfileID,
		"ended_relations", affected,
	)
	return nil
}

// ListManagerAgents 查询分店长名下生效销售员
func (s *ProfileService) ListManagerAgents(managerProfileID uint) ([]models.AgentRelation, error) {
	manager, err := s.repo.GetByID(managerProfileID)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, ErrNotFound
	}
	return s.repo.ListActiveRelationsByManager(managerProfileID)
}

func generateAffiliateCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var builder strings.Builder
	builder.Grow(affiliateCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < affiliateCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}
