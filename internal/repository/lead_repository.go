package repository

import (
	"errors"
	"strings"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadRepository 潜客数据访问接口
type LeadRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) LeadRepository

	GetByID(id uint) (*models.AffiliateLead, error)
	GetByIDForUpdate(id uint) (*models.AffiliateLead, error)
	GetLatestOpenByPhone(phone string) (*models.AffiliateLead, error)
	Create(lead *models.AffiliateLead) error
	Update(lead *models.AffiliateLead) error
	List(filter LeadListFilter) ([]models.AffiliateLead, int64, error)
}

// GormLeadRepository GORM 潜客仓储
type GormLeadRepository struct {
	db *gorm.DB
}

// NewLeadRepository 创建潜客仓储
func NewLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLeadRepository) WithTx(tx *gorm.DB) LeadRepository {
	if tx == nil {
		return r
	}
	return &GormLeadRepository{db: tx}
}

// Transaction 执行事务
func (r *GormLeadRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取潜客
func (r *GormLeadRepository) GetByID(id uint) (*models.AffiliateLead, error) {
	if id == 0 {
		return nil, nil
	}
	var lead models.AffiliateLead
	if err := r.db.Preload("Manager").Preload("Agent").First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

// GetByIDForUpdate 按ID锁定获取潜客
func (r *GormLeadRepository) GetByIDForUpdate(id uint) (*models.AffiliateLead, error) {
	if id == 0 {
		return nil, nil
	}
	var lead models.AffiliateLead
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

// GetLatestOpenByPhone 按归一化手机号查询最近一条未关闭潜客
func (r *GormLeadRepository) GetLatestOpenByPhone(phone string) (*models.AffiliateLead, error) {
	normalized := strings.TrimSpace(phone)
	if normalized == "" {
		return nil, nil
	}
	var lead models.AffiliateLead
	err := r.db.
		Where("customer_phone = ? AND status NOT IN ?", normalized,
			[]string{constants.LeadStatusRefunded, constants.LeadStatusClosed}).
		Order("created_at desc, id desc").
		First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

// Create 创建潜客
func (r *GormLeadRepository) Create(lead *models.AffiliateLead) error {
	return r.db.Create(lead).Error
}

// Update 更新潜客
func (r *GormLeadRepository) Update(lead *models.AffiliateLead) error {
	return r.db.Save(lead).Error
}

// List 查询潜客列表
func (r *GormLeadRepository) List(filter LeadListFilter) ([]models.AffiliateLead, int64, error) {
	query := r.db.Model(&models.AffiliateLead{}).Preload("Manager").Preload("Agent")
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("affiliate_leads.status = ?", status)
	}
	if filter.ManagerProfileID != 0 {
		query = query.Where("affiliate_leads.manager_profile_id = ?", filter.ManagerProfileID)
	}
	if filter.AgentProfileID != 0 {
		query = query.Where("affiliate_leads.agent_profile_id = ?", filter.AgentProfileID)
	}
	if phone := strings.TrimSpace(filter.Phone); phone != "" {
		query = query.Where("affiliate_leads.customer_phone = ?", phone)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("(affiliate_leads.customer_name LIKE ? OR affiliate_leads.customer_phone LIKE ?)", like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("affiliate_leads.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("affiliate_leads.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AffiliateLead
	if err := query.Order("affiliate_leads.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
