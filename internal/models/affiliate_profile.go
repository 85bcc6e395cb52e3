package models

import (
	"time"

	"gorm.io/gorm"
)

// AffiliateProfile 推广体系参与方档案（总部/分店长/销售员）
type AffiliateProfile struct {
	ID            uint           `gorm:"primarykey" json:"id"`                              // 主键
	ProfileType   string         `gorm:"type:varchar(20);not null;index" json:"type"`       // 档案类型
	DisplayName   string         `gorm:"type:varchar(100);not null" json:"display_name"`    // 显示名称
	AffiliateCode string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"` // 联盟短ID（稳定外部引用）
	Phone         string         `gorm:"type:varchar(32);index" json:"phone,omitempty"`     // 联系电话
	Status        string         `gorm:"type:varchar(20);not null;index" json:"status"`     // 状态
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (AffiliateProfile) TableName() string {
	return "affiliate_profiles"
}
