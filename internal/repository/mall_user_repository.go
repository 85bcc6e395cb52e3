package repository

import (
	"errors"
	"strings"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"

	"gorm.io/gorm"
)

// MallUserRepository 商城用户数据访问接口
type MallUserRepository interface {
	GetByID(id uint) (*models.MallUser, error)
	GetPartnerByPhone(phone string) (*models.MallUser, error)
	Upsert(user *models.MallUser) error
	List(page, pageSize int, role, keyword string) ([]models.MallUser, int64, error)
}

// GormMallUserRepository GORM 商城用户仓储
type GormMallUserRepository struct {
	db *gorm.DB
}

// NewMallUserRepository 创建商城用户仓储
func NewMallUserRepository(db *gorm.DB) *GormMallUserRepository {
	return &GormMallUserRepository{db: db}
}

// GetByID 按商城用户ID获取用户
func (r *GormMallUserRepository) GetByID(id uint) (*models.MallUser, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.MallUser
	if err := r.db.Preload("AffiliateProfile").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetPartnerByPhone 按归一化手机号查询 partner 角色用户
func (r *GormMallUserRepository) GetPartnerByPhone(phone string) (*models.MallUser, error) {
	normalized := strings.TrimSpace(phone)
	if normalized == "" {
		return nil, nil
	}
	var user models.MallUser
	err := r.db.Preload("AffiliateProfile").
		Where("phone = ? AND role = ?", normalized, constants.MallUserRolePartner).
		Order("id asc").
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Upsert 创建或覆盖商城用户（同步接口按商城ID覆盖写入）
func (r *GormMallUserRepository) Upsert(user *models.MallUser) error {
	if user == nil {
		return nil
	}
	return r.db.Save(user).Error
}

// List 查询商城用户列表
func (r *GormMallUserRepository) List(page, pageSize int, role, keyword string) ([]models.MallUser, int64, error) {
	query := r.db.Model(&models.MallUser{}).Preload("AffiliateProfile")
	if role = strings.TrimSpace(role); role != "" {
		query = query.Where("role = ?", role)
	}
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("(display_name LIKE ? OR phone LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	var rows []models.MallUser
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
