package models

import (
	"time"

	"gorm.io/gorm"
)

// MallUser 商城侧用户（外部商城系统同步）
// partner 角色用户可关联推广档案，供销售事件按商城用户归因
type MallUser struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                           // 主键（商城用户数字ID）
	DisplayName        string         `gorm:"type:varchar(100)" json:"display_name"`          // 显示名称
	Phone              string         `gorm:"type:varchar(32);index" json:"phone"`            // 手机号（E.164 归一化存储）
	Role               string         `gorm:"type:varchar(20);not null;index" json:"role"`    // 用户角色
	AffiliateProfileID *uint          `gorm:"index" json:"affiliate_profile_id,omitempty"`    // 关联推广档案
	Status             string         `gorm:"type:varchar(20);not null;index" json:"status"`  // 状态
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	AffiliateProfile *AffiliateProfile `gorm:"foreignKey:AffiliateProfileID" json:"affiliate_profile,omitempty"` // 推广档案
}

// TableName 指定表名
func (MallUser) TableName() string {
	return "mall_users"
}
