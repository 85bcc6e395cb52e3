package repository

import (
	"errors"
	"strings"

	"github.com/cruisemall-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRepository 销售记录数据访问接口
type SaleRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SaleRepository

	GetByID(id uint) (*models.AffiliateSale, error)
	GetByIDForUpdate(id uint) (*models.AffiliateSale, error)
	GetByExternalOrderCode(code string) (*models.AffiliateSale, error)
	Create(sale *models.AffiliateSale) error
	UpdateStatus(id uint, status string) error
	List(filter SaleListFilter) ([]models.AffiliateSale, int64, error)
}

// GormSaleRepository GORM 销售记录仓储
type GormSaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository 创建销售记录仓储
func NewSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSaleRepository) WithTx(tx *gorm.DB) SaleRepository {
	if tx == nil {
		return r
	}
	return &GormSaleRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSaleRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取销售记录（含台账条目）
func (r *GormSaleRepository) GetByID(id uint) (*models.AffiliateSale, error) {
	if id == 0 {
		return nil, nil
	}
	var sale models.AffiliateSale
	err := r.db.Preload("Manager").Preload("Agent").Preload("Lead").
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("commission_ledger_entries.id asc")
		}).
		First(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// GetByIDForUpdate 按ID锁定获取销售记录
func (r *GormSaleRepository) GetByIDForUpdate(id uint) (*models.AffiliateSale, error) {
	if id == 0 {
		return nil, nil
	}
	var sale models.AffiliateSale
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// GetByExternalOrderCode 按外部订单号获取销售记录（幂等去重查询）
func (r *GormSaleRepository) GetByExternalOrderCode(code string) (*models.AffiliateSale, error) {
	normalized := strings.TrimSpace(code)
	if normalized == "" {
		return nil, nil
	}
	var sale models.AffiliateSale
	err := r.db.
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("commission_ledger_entries.id asc")
		}).
		Where("external_order_code = ?", normalized).
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// Create 创建销售记录
func (r *GormSaleRepository) Create(sale *models.AffiliateSale) error {
	return r.db.Create(sale).Error
}

// UpdateStatus 更新销售记录状态
func (r *GormSaleRepository) UpdateStatus(id uint, status string) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateSale{}).
		Where("id = ?", id).
		Update("status", strings.TrimSpace(status)).Error
}

// List 查询销售记录列表
func (r *GormSaleRepository) List(filter SaleListFilter) ([]models.AffiliateSale, int64, error) {
	query := r.db.Model(&models.AffiliateSale{}).Preload("Manager").Preload("Agent")
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("affiliate_sales.status = ?", status)
	}
	if source := strings.TrimSpace(filter.AttributionSource); source != "" {
		query = query.Where("affiliate_sales.attribution_source = ?", source)
	}
	if productCode := strings.TrimSpace(filter.ProductCode); productCode != "" {
		query = query.Where("affiliate_sales.product_code = ?", productCode)
	}
	if cabinType := strings.TrimSpace(filter.CabinType); cabinType != "" {
		query = query.Where("affiliate_sales.cabin_type = ?", cabinType)
	}
	if orderCode := strings.TrimSpace(filter.ExternalOrderCode); orderCode != "" {
		query = query.Where("affiliate_sales.external_order_code LIKE ?", "%"+orderCode+"%")
	}
	if filter.ManagerProfileID != 0 {
		query = query.Where("affiliate_sales.manager_profile_id = ?", filter.ManagerProfileID)
	}
	if filter.AgentProfileID != 0 {
		query = query.Where("affiliate_sales.agent_profile_id = ?", filter.AgentProfileID)
	}
	if filter.SaleDateFrom != nil {
		query = query.Where("affiliate_sales.sale_date >= ?", *filter.SaleDateFrom)
	}
	if filter.SaleDateTo != nil {
		query = query.Where("affiliate_sales.sale_date <= ?", *filter.SaleDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AffiliateSale
	if err := query.Order("affiliate_sales.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
