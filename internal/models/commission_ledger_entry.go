package models

import (
	"time"
)

// CommissionLedgerEntry 佣金台账条目
// 创建后不可变更；冲正通过追加引用同一销售的反向条目完成，结算仅翻转 is_settled
type CommissionLedgerEntry struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                           // 主键
	SaleID            uint       `gorm:"not null;index" json:"sale_id"`                                  // 所属销售记录
	ProfileID         uint       `gorm:"not null;index" json:"profile_id"`                               // 受益档案ID
	EntryType         string     `gorm:"type:varchar(32);not null;index" json:"entry_type"`              // 条目类型
	Amount            Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`            // 条目金额
	WithholdingAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"withholding_amount"` // 分摊代扣金额
	IsReversal        bool       `gorm:"not null;default:false;index" json:"is_reversal"`                // 是否冲正条目
	IsSettled         bool       `gorm:"not null;default:false;index" json:"is_settled"`                 // 是否已结算
	SettlementBatchID *uint      `gorm:"index" json:"settlement_batch_id,omitempty"`                     // 结算批次ID
	SettledAt         *time.Time `gorm:"index" json:"settled_at,omitempty"`                              // 结算时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                        // 创建时间

	Sale    AffiliateSale    `gorm:"foreignKey:SaleID" json:"sale,omitempty"`       // 销售记录
	Profile AffiliateProfile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"` // 受益档案
}

// TableName 指定表名
func (CommissionLedgerEntry) TableName() string {
	return "commission_ledger_entries"
}
