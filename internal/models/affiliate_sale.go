package models

import (
	"time"

	"gorm.io/gorm"
)

// AffiliateSale 已确认销售记录
// external_order_code 非空时作为幂等键，由唯一索引兜底防止 webhook 重投双写
type AffiliateSale struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                          // 主键
	ExternalOrderCode *string        `gorm:"type:varchar(64);uniqueIndex" json:"external_order_code"`       // 外部订单号（幂等键）
	ProductCode       string         `gorm:"type:varchar(64);not null;index" json:"product_code"`           // 商品编码
	CabinType         string         `gorm:"type:varchar(32);index" json:"cabin_type,omitempty"`            // 舱型（档位选择输入）
	LeadID            *uint          `gorm:"index" json:"lead_id,omitempty"`                                // 关联潜客
	ManagerProfileID  *uint          `gorm:"index" json:"manager_profile_id,omitempty"`                     // 归因分店长（成交时快照）
	AgentProfileID    *uint          `gorm:"index" json:"agent_profile_id,omitempty"`                       // 归因销售员
	AttributionSource string         `gorm:"type:varchar(20)" json:"attribution_source,omitempty"`          // 归因命中来源
	Currency          string         `gorm:"type:varchar(8);not null;default:'KRW'" json:"currency"`        // 币种（按销售申报币种记录）
	SaleAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"sale_amount"`      // 销售金额
	CostAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"cost_amount"`      // 成本金额
	NetRevenue        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"net_revenue"`      // 净收入（销售额-成本）
	Status            string         `gorm:"type:varchar(20);not null;index" json:"status"`                 // 销售状态
	SaleDate          time.Time      `gorm:"not null;index" json:"sale_date"`                               // 销售日期
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Lead    *AffiliateLead    `gorm:"foreignKey:LeadID" json:"lead,omitempty"`              // 潜客记录
	Manager *AffiliateProfile `gorm:"foreignKey:ManagerProfileID" json:"manager,omitempty"` // 分店长档案
	Agent   *AffiliateProfile `gorm:"foreignKey:AgentProfileID" json:"agent,omitempty"`     // 销售员档案

	Entries []CommissionLedgerEntry `gorm:"foreignKey:SaleID" json:"entries,omitempty"` // 佣金台账条目
}

// TableName 指定表名
func (AffiliateSale) TableName() string {
	return "affiliate_sales"
}
