package models

import (
	"time"

	"gorm.io/gorm"
)

// AffiliateLead 潜客记录
// 归属（manager/agent）在创建时解析一次，此后不再重新推导
type AffiliateLead struct {
	ID               uint           `gorm:"primarykey" json:"id"`                            // 主键
	CustomerName     string         `gorm:"type:varchar(100);not null" json:"customer_name"` // 客户姓名
	CustomerPhone    string         `gorm:"type:varchar(32);index" json:"customer_phone"`    // 客户电话
	ManagerProfileID *uint          `gorm:"index" json:"manager_profile_id,omitempty"`       // 归属分店长
	AgentProfileID   *uint          `gorm:"index" json:"agent_profile_id,omitempty"`         // 归属销售员
	Status           string         `gorm:"type:varchar(20);not null;index" json:"status"`   // 潜客状态
	Memo             string         `gorm:"type:varchar(500)" json:"memo,omitempty"`         // 备注
	PurchasedAt      *time.Time     `gorm:"index" json:"purchased_at,omitempty"`             // 成交时间
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间

	Manager *AffiliateProfile `gorm:"foreignKey:ManagerProfileID" json:"manager,omitempty"` // 分店长档案
	Agent   *AffiliateProfile `gorm:"foreignKey:AgentProfileID" json:"agent,omitempty"`     // 销售员档案
}

// TableName 指定表名
func (AffiliateLead) TableName() string {
	return "affiliate_leads"
}
