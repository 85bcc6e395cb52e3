package models

import (
	"time"

	"gorm.io/gorm"
)

// CommissionTier 佣金档位配置（按舱型区分比例）
// 比例均为百分比值；is_default 档位在舱型未命中时兜底
type CommissionTier struct {
	ID                     uint           `gorm:"primarykey" json:"id"`                                                // 主键
	CabinType              string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"cabin_type"`             // 舱型编码
	ManagerRatePercent     Money          `gorm:"type:decimal(10,2);not null;default:0" json:"manager_rate_percent"`   // 分店长直销比例
	AgentRatePercent       Money          `gorm:"type:decimal(10,2);not null;default:0" json:"agent_rate_percent"`     // 销售员比例
	OverrideRatePercent    Money          `gorm:"type:decimal(10,2);not null;default:0" json:"override_rate_percent"`  // 管理加成比例
	WithholdingRatePercent Money          `gorm:"type:decimal(10,2);not null;default:0" json:"withholding_rate_percent"` // 代扣比例
	IsDefault              bool           `gorm:"not null;default:false;index" json:"is_default"`                      // 是否兜底档位
	CreatedAt              time.Time      `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt              time.Time      `gorm:"index" json:"updated_at"`                                             // 更新时间
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`                                                      // 软删除时间
}

// TableName 指定表名
func (CommissionTier) TableName() string {
	return "commission_tiers"
}
