package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository 推广档案与归属关系数据访问接口
type ProfileRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProfileRepository

	GetByID(id uint) (*models.AffiliateProfile, error)
	GetByIDs(ids []uint) (map[uint]models.AffiliateProfile, error)
	GetByCode(code string) (*models.AffiliateProfile, error)
	GetByPhone(phone string) (*models.AffiliateProfile, error)
	Create(profile *models.AffiliateProfile) error
	Update(profile *models.AffiliateProfile) error
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	List(filter ProfileListFilter) ([]models.AffiliateProfile, int64, error)

	GetActiveRelationByAgent(agentProfileID uint) (*models.AgentRelation, error)
	GetActiveRelationByAgentForUpdate(agentProfileID uint) (*models.AgentRelation, error)
	ListActiveRelationsByManager(managerProfileID uint) ([]models.AgentRelation, error)
	ListRelationsByAgent(agentProfileID uint) ([]models.AgentRelation, error)
	CreateRelation(relation *models.AgentRelation) error
	EndActiveRelations(agentProfileID uint, endedAt time.Time) (int64, error)
}

// GormProfileRepository GORM 推广档案仓储
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建推广档案仓储
func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProfileRepository) WithTx(tx *gorm.DB) ProfileRepository {
	if tx == nil {
		return r
	}
	return &GormProfileRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProfileRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取推广档案
func (r *GormProfileRepository) GetByID(id uint) (*models.AffiliateProfile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByIDs 批量获取推广档案
func (r *GormProfileRepository) GetByIDs(ids []uint) (map[uint]models.AffiliateProfile, error) {
	result := make(map[uint]models.AffiliateProfile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.AffiliateProfile
	if err := r.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

// GetByCode 按联盟短ID获取推广档案
func (r *GormProfileRepository) GetByCode(code string) (*models.AffiliateProfile, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.Where("affiliate_code = ?", normalized).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByPhone 按归一化手机号获取推广档案
func (r *GormProfileRepository) GetByPhone(phone string) (*models.AffiliateProfile, error) {
	normalized := strings.TrimSpace(phone)
	if normalized == "" {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.Where("phone = ?", normalized).Order("id asc").First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create 创建推广档案
func (r *GormProfileRepository) Create(profile *models.AffiliateProfile) error {
	return r.db.Create(profile).Error
}

// Update 更新推广档案
func (r *GormProfileRepository) Update(profile *models.AffiliateProfile) error {
	return r.db.Save(profile).Error
}

// UpdateStatus 更新推广档案状态
func (r *GormProfileRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// List 查询推广档案列表
func (r *GormProfileRepository) List(filter ProfileListFilter) ([]models.AffiliateProfile, int64, error) {
	query := r.db.Model(&models.AffiliateProfile{})
	if profileType := strings.TrimSpace(filter.ProfileType); profileType != "" {
		query = query.Where("profile_type = ?", profileType)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		query = query.Where("affiliate_code = ?", strings.ToUpper(code))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("(display_name LIKE ? OR affiliate_code LIKE ? OR phone LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AffiliateProfile
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetActiveRelationByAgent 查询销售员当前生效的归属关系
func (r *GormProfileRepository) GetActiveRelationByAgent(agentProfileID uint) (*models.AgentRelation, error) {
	if agentProfileID == 0 {
		return nil, nil
	}
	var relation models.AgentRelation
	err := r.db.Preload("Manager").
		Where("agent_profile_id = ? AND status = ?", agentProfileID, constants.AgentRelationStatusActive).
		Order("started_at desc, id desc").
		First(&relation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &relation, nil
}

// GetActiveRelationByAgentForUpdate 锁定查询销售员当前生效的归属关系
func (r *GormProfileRepository) GetActiveRelationByAgentForUpdate(agentProfileID uint) (*models.AgentRelation, error) {
	if agentProfileID == 0 {
		return nil, nil
	}
	var relation models.AgentRelation
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("agent_profile_id = ? AND status = ?", agentProfileID, constants.AgentRelationStatusActive).
		Order("started_at desc, id desc").
		First(&relation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &relation, nil
}

// ListActiveRelationsByManager 查询分店长名下生效归属关系
func (r *GormProfileRepository) ListActiveRelationsByManager(managerProfileID uint) ([]models.AgentRelation, error) {
	if managerProfileID == 0 {
		return []models.AgentRelation{}, nil
	}
	var rows []models.AgentRelation
	err := r.db.Preload("Agent").
		Where("manager_profile_id = ? AND status = ?", managerProfileID, constants.AgentRelationStatusActive).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRelationsByAgent 查询销售员全部归属关系（含历史）
func (r *GormProfileRepository) ListRelationsByAgent(agentProfileID uint) ([]models.AgentRelation, error) {
	if agentProfileID == 0 {
		return []models.AgentRelation{}, nil
	}
	var rows []models.AgentRelation
	err := r.db.Preload("Manager").
		Where("agent_profile_id = ?", agentProfileID).
		Order("started_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateRelation 创建归属关系
func (r *GormProfileRepository) CreateRelation(relation *models.AgentRelation) error {
	return r.db.Create(relation).Error
}

// EndActiveRelations 结束销售员当前全部生效归属关系
func (r *GormProfileRepository) EndActiveRelations(agentProfileID uint, endedAt time.Time) (int64, error) {
	if agentProfileID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.AgentRelation{}).
		Where("agent_profile_id = ? AND status = ?", agentProfileID, constants.AgentRelationStatusActive).
		Updates(map[string]interface{}{
			"status":     constants.AgentRelationStatusEnded,
			"ended_at":   endedAt,
			"updated_at": endedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
