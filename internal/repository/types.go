package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfileListFilter 查询分销档案列表的过滤条件
type ProfileListFilter struct {
	Page        int
	PageSize    int
	ProfileType string
	Status      string
	Code        string
	Keyword     string
}

// LeadListFilter 查询客户线索列表的过滤条件
type LeadListFilter struct {
	Page             int
	PageSize         int
	Status           string
	ManagerProfileID uint
	AgentProfileID   uint
	Phone            string
	Keyword          string
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
}

// SaleListFilter 查询销售记录列表的过滤条件
type SaleListFilter struct {
	Page              int
	PageSize          int
	Status            string
	AttributionSource string
	ProductCode       string
	CabinType         string
	ExternalOrderCode string
	ManagerProfileID  uint
	AgentProfileID    uint
	SaleDateFrom      *time.Time
	SaleDateTo        *time.Time
}

// LedgerListFilter 查询佣金台账列表的过滤条件
type LedgerListFilter struct {
	Page              int
	PageSize          int
	SaleID            uint
	ProfileID         uint
	EntryType         string
	SettlementBatchID uint
	Settled           *bool
	Reversal          *bool
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
}

// SettlementBatchListFilter 查询结算批次列表的过滤条件
type SettlementBatchListFilter struct {
	Page        int
	PageSize    int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ProfileLedgerAggregate 分销档案台账汇总
type ProfileLedgerAggregate struct {
	EntryCount        int64
	GrossAmount       decimal.Decimal
	WithholdingAmount decimal.Decimal
	UnsettledAmount   decimal.Decimal
}
