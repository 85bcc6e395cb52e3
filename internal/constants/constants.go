package constants

// 推广档案类型常量
const (
	AffiliateProfileTypeHQ            = "hq"
	AffiliateProfileTypeBranchManager = "branch_manager"
	AffiliateProfileTypeSalesAgent    = "sales_agent"
)

// 推广档案状态常量
const (
	AffiliateProfileStatusActive   = "active"
	AffiliateProfileStatusInactive = "inactive"
)

// 代理归属关系状态常量
const (
	AgentRelationStatusActive = "active"
	AgentRelationStatusEnded  = "ended"
)

// 潜客状态常量
const (
	LeadStatusNew        = "new"
	LeadStatusContacted  = "contacted"
	LeadStatusInProgress = "in_progress"
	LeadStatusPurchased  = "purchased"
	LeadStatusRefunded   = "refunded"
	LeadStatusClosed     = "closed"
)

// 销售记录状态常量
const (
	SaleStatusConfirmed       = "confirmed"
	SaleStatusPaid            = "paid"
	SaleStatusPayoutScheduled = "payout_scheduled"
	SaleStatusRefunded        = "refunded"
	SaleStatusCanceled        = "canceled"
)

// 佣金台账条目类型常量
const (
	LedgerEntryTypeBranchCommission   = "branch_commission"
	LedgerEntryTypeSalesCommission    = "sales_commission"
	LedgerEntryTypeOverrideCommission = "override_commission"
	LedgerEntryTypeWithholding        = "withholding"
)

// 商城用户角色常量
const (
	MallUserRoleCustomer = "customer"
	MallUserRolePartner  = "partner"
)

// 归因来源常量（记录命中的提示类型，用于观测）
const (
	AttributionSourceExplicitAgent   = "explicit_agent"
	AttributionSourceExplicitManager = "explicit_manager"
	AttributionSourceAffiliateCode   = "affiliate_code"
	AttributionSourceMallUser        = "mall_user"
	AttributionSourceLead            = "lead"
	AttributionSourceNone            = "none"
)

// 异步任务类型常量
const (
	TaskLeadMarkPurchased = "lead:mark_purchased"
	TaskSettlementRun     = "settlement:run"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)
