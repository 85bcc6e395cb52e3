package models

import (
	"time"
)

// SettlementBatch 结算批次
// 一次结算运行生成一条批次记录，批次内台账条目同事务翻转 is_settled
type SettlementBatch struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                  // 主键
	OperatorID  *uint     `gorm:"index" json:"operator_id,omitempty"`                    // 触发管理员（定时任务为空）
	EntryCount  int64     `gorm:"not null;default:0" json:"entry_count"`                 // 条目数
	TotalAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 条目金额合计
	CutoffAt    time.Time `gorm:"not null" json:"cutoff_at"`                             // 结算截止时间
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                               // 创建时间
}

// TableName 指定表名
func (SettlementBatch) TableName() string {
	return "settlement_batches"
}
