package repository

import (
	"errors"
	"strings"

	"github.com/cruisemall-server/internal/models"

	"gorm.io/gorm"
)

// TierRepository 佣金档位数据访问接口
type TierRepository interface {
	GetByID(id uint) (*models.CommissionTier, error)
	GetByCabinType(cabinType string) (*models.CommissionTier, error)
	GetDefault() (*models.CommissionTier, error)
	Create(tier *models.CommissionTier) error
	Update(tier *models.CommissionTier) error
	Delete(id uint) error
	List() ([]models.CommissionTier, error)
	ClearDefaultExcept(id uint) error
}

// GormTierRepository GORM 佣金档位仓储
type GormTierRepository struct {
	db *gorm.DB
}

// NewTierRepository 创建佣金档位仓储
func NewTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

// GetByID 按ID获取档位
func (r *GormTierRepository) GetByID(id uint) (*models.CommissionTier, error) {
	if id == 0 {
		return nil, nil
	}
	var tier models.CommissionTier
	if err := r.db.First(&tier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// GetByCabinType 按舱型获取档位
func (r *GormTierRepository) GetByCabinType(cabinType string) (*models.CommissionTier, error) {
	normalized := strings.ToUpper(strings.TrimSpace(cabinType))
	if normalized == "" {
		return nil, nil
	}
	var tier models.CommissionTier
	if err := r.db.Where("cabin_type = ?", normalized).First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// GetDefault 获取兜底档位
func (r *GormTierRepository) GetDefault() (*models.CommissionTier, error) {
	var tier models.CommissionTier
	if err := r.db.Where("is_default = ?", true).Order("id asc").First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// Create 创建档位
func (r *GormTierRepository) Create(tier *models.CommissionTier) error {
	return r.db.Create(tier).Error
}

// Update 更新档位
func (r *GormTierRepository) Update(tier *models.CommissionTier) error {
	return r.db.Save(tier).Error
}

// Delete 删除档位
func (r *GormTierRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.CommissionTier{}, id).Error
}

// List 获取全部档位
func (r *GormTierRepository) List() ([]models.CommissionTier, error) {
	rows := make([]models.CommissionTier, 0)
	if err := r.db.Order("is_default desc, cabin_type asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ClearDefaultExcept 清除其他档位的兜底标记
func (r *GormTierRepository) ClearDefaultExcept(id uint) error {
	query := r.db.Model(&models.CommissionTier{}).Where("is_default = ?", true)
	if id != 0 {
		query = query.Where("id <> ?", id)
	}
	return query.Update("is_default", false).Error
}
