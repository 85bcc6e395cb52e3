package service

import (
	"github.com/cruisemall-server/internal/models"
	"github.com/shopspring/decimal"
)

var percentBase = decimal.NewFromInt(100)

// TierContext 佣金档位上下文（值对象，注入纯计算器，计算过程不读库）
type TierContext struct {
	CabinType              string
	ManagerRatePercent     decimal.Decimal
	AgentRatePercent       decimal.Decimal
	OverrideRatePercent    decimal.Decimal
	WithholdingRatePercent decimal.Decimal
}

// Breakdown 佣金分解结果
type Breakdown struct {
	NetRevenue         models.Money `json:"net_revenue"`
	BranchCommission   models.Money `json:"branch_commission"`
	SalesCommission    models.Money `json:"sales_commission"`
	OverrideCommission models.Money `json:"override_commission"`
	TotalWithholding   models.Money `json:"total_withholding"`
}

// CommissionTotal 佣金分量合计（不含代扣）
func (b Breakdown) CommissionTotal() decimal.Decimal {
	return b.BranchCommission.Decimal.
		Add(b.SalesCommission.Decimal).
		Add(b.OverrideCommission.Decimal)
}

// CalculateCommission 纯佣金计算
// 所有比例作用于净收入（销售额-成本）；仅在最终结果截断到最小货币单位，
// 中间量不舍入避免逐项漂移；净收入为负时各分量为负（回冲），不钳制为零
func CalculateCommission(
	saleAmount, costAmount decimal.Decimal,
	managerProfileID, agentProfileID *uint,
	tier TierContext,
) Breakdown {
	netRevenue := saleAmount.Sub(costAmount)

	var branch, sales, override decimal.Decimal
	if agentProfileID != nil {
		sales = netRevenue.Mul(tier.AgentRatePercent).Div(percentBase)
		if managerProfileID != nil {
			override = netRevenue.Mul(tier.OverrideRatePercent).Div(percentBase)
		}
	} else if managerProfileID != nil {
		branch = netRevenue.Mul(tier.ManagerRatePercent).Div(percentBase)
	}

	withholding := branch.Add(sales).Add(override).
		Mul(tier.WithholdingRatePercent).Div(percentBase)

	return Breakdown{
		NetRevenue:         models.NewMoneyFromDecimal(netRevenue),
		BranchCommission:   models.Money{Decimal: branch.RoundDown(2)},
		SalesCommission:    models.Money{Decimal: sales.RoundDown(2)},
		OverrideCommission: models.Money{Decimal: override.RoundDown(2)},
		TotalWithholding:   models.Money{Decimal: withholding.RoundDown(2)},
	}
}
