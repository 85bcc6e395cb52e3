package repository

import (
	"errors"

	"github.com/cruisemall-server/internal/models"

	"gorm.io/gorm"
)

// SettlementRepository 结算批次数据访问接口
type SettlementRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SettlementRepository

	GetByID(id uint) (*models.SettlementBatch, error)
	Create(batch *models.SettlementBatch) error
	Update(batch *models.SettlementBatch) error
	List(filter SettlementBatchListFilter) ([]models.SettlementBatch, int64, error)
}

// GormSettlementRepository GORM 结算批次仓储
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建结算批次仓储
func NewSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) SettlementRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSettlementRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID获取结算批次
func (r *GormSettlementRepository) GetByID(id uint) (*models.SettlementBatch, error) {
	if id == 0 {
		return nil, nil
	}
	var batch models.SettlementBatch
	if err := r.db.First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// Create 创建结算批次
func (r *GormSettlementRepository) Create(batch *models.SettlementBatch) error {
	return r.db.Create(batch).Error
}

// Update 更新结算批次
func (r *GormSettlementRepository) Update(batch *models.SettlementBatch) error {
	return r.db.Save(batch).Error
}

// List 查询结算批次列表
func (r *GormSettlementRepository) List(filter SettlementBatchListFilter) ([]models.SettlementBatch, int64, error) {
	query := r.db.Model(&models.SettlementBatch{})
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.SettlementBatch
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
