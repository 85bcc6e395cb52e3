package models

import (
	"time"
)

// AgentRelation 销售员与分店长的归属关系
// 重新分配时旧关系置为 ended 而非删除，保留历史；同一销售员同一时刻至多一条 active 关系
type AgentRelation struct {
	ID               uint       `gorm:"primarykey" json:"id"`                          // 主键
	AgentProfileID   uint       `gorm:"not null;index" json:"agent_profile_id"`        // 销售员档案ID
	ManagerProfileID uint       `gorm:"not null;index" json:"manager_profile_id"`      // 分店长档案ID
	Status           string     `gorm:"type:varchar(20);not null;index" json:"status"` // 关系状态
	StartedAt        time.Time  `gorm:"not null" json:"started_at"`                    // 生效时间
	EndedAt          *time.Time `gorm:"index" json:"ended_at,omitempty"`               // 结束时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt        time.Time  `gorm:"index" json:"updated_at"`                       // 更新时间

	Agent   AffiliateProfile `gorm:"foreignKey:AgentProfileID" json:"agent,omitempty"`     // 销售员档案
	Manager AffiliateProfile `gorm:"foreignKey:ManagerProfileID" json:"manager,omitempty"` // 分店长档案
}

// TableName 指定表名
func (AgentRelation) TableName() string {
	return "agent_relations"
}
