package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testTierContext() TierContext {
	return TierContext{
		CabinType:              "BALCONY",
		ManagerRatePercent:     decimal.NewFromInt(10),
		AgentRatePercent:       decimal.NewFromInt(5),
		OverrideRatePercent:    decimal.NewFromInt(2),
		WithholdingRatePercent: decimal.NewFromFloat(3.3),
	}
}

func uintPtr(v uint) *uint {
	return &v
}

func TestCalculateCommissionManagerOnlySale(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(1000000),
		decimal.NewFromInt(200000),
		uintPtr(1),
		nil,
		testTierContext(),
	)

	if !breakdown.NetRevenue.Decimal.Equal(decimal.NewFromInt(800000)) {
		t.Fatalf("unexpected net revenue: %s", breakdown.NetRevenue.String())
	}
	if !breakdown.BranchCommission.Decimal.Equal(decimal.NewFromInt(80000)) {
		t.Fatalf("unexpected branch commission: %s", breakdown.BranchCommission.String())
	}
	if !breakdown.SalesCommission.Decimal.IsZero() || !breakdown.OverrideCommission.Decimal.IsZero() {
		t.Fatalf("manager-only sale must not produce agent components: %+v", breakdown)
	}
	if !breakdown.TotalWithholding.Decimal.Equal(decimal.NewFromInt(2640)) {
		t.Fatalf("unexpected withholding: %s", breakdown.TotalWithholding.String())
	}
}

func TestCalculateCommissionAgentWithManagerOverride(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(1000000),
		decimal.NewFromInt(200000),
		uintPtr(1),
		uintPtr(2),
		testTierContext(),
	)

	if !breakdown.SalesCommission.Decimal.Equal(decimal.NewFromInt(40000)) {
		t.Fatalf("unexpected sales commission: %s", breakdown.SalesCommission.String())
	}
	if !breakdown.OverrideCommission.Decimal.Equal(decimal.NewFromInt(16000)) {
		t.Fatalf("unexpected override commission: %s", breakdown.OverrideCommission.String())
	}
	if !breakdown.BranchCommission.Decimal.IsZero() {
		t.Fatalf("agent sale must not produce branch commission: %s", breakdown.BranchCommission.String())
	}
	// 代扣按全部佣金分量之和计提
	if !breakdown.TotalWithholding.Decimal.Equal(decimal.NewFromInt(1848)) {
		t.Fatalf("unexpected withholding: %s", breakdown.TotalWithholding.String())
	}
}

func TestCalculateCommissionAgentWithoutManager(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(500000),
		decimal.NewFromInt(100000),
		nil,
		uintPtr(2),
		testTierContext(),
	)

	if !breakdown.SalesCommission.Decimal.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected sales commission: %s", breakdown.SalesCommission.String())
	}
	if !breakdown.OverrideCommission.Decimal.IsZero() {
		t.Fatal("agent without manager must not produce override commission")
	}
}

func TestCalculateCommissionComponentsScaleWithNetRevenue(t *testing.T) {
	base := CalculateCommission(
		decimal.NewFromInt(1000000),
		decimal.NewFromInt(200000),
		uintPtr(1),
		uintPtr(2),
		testTierContext(),
	)
	// 销售额不变、成本翻倍 → 净收入减半 → 各分量减半
	halved := CalculateCommission(
		decimal.NewFromInt(1000000),
		decimal.NewFromInt(600000),
		uintPtr(1),
		uintPtr(2),
		testTierContext(),
	)

	two := decimal.NewFromInt(2)
	if !base.SalesCommission.Decimal.Equal(halved.SalesCommission.Decimal.Mul(two)) {
		t.Fatalf("sales commission not proportional: %s vs %s",
			base.SalesCommission.String(), halved.SalesCommission.String())
	}
	if !base.OverrideCommission.Decimal.Equal(halved.OverrideCommission.Decimal.Mul(two)) {
		t.Fatalf("override commission not proportional: %s vs %s",
			base.OverrideCommission.String(), halved.OverrideCommission.String())
	}
	if !base.TotalWithholding.Decimal.Equal(halved.TotalWithholding.Decimal.Mul(two)) {
		t.Fatalf("withholding not proportional: %s vs %s",
			base.TotalWithholding.String(), halved.TotalWithholding.String())
	}
}

func TestCalculateCommissionNegativeNetRevenueClawback(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(100000),
		decimal.NewFromInt(150000),
		uintPtr(1),
		uintPtr(2),
		testTierContext(),
	)

	if !breakdown.NetRevenue.Decimal.Equal(decimal.NewFromInt(-50000)) {
		t.Fatalf("unexpected net revenue: %s", breakdown.NetRevenue.String())
	}
	if !breakdown.SalesCommission.Decimal.Equal(decimal.NewFromInt(-2500)) {
		t.Fatalf("expected negative sales commission, got %s", breakdown.SalesCommission.String())
	}
	if !breakdown.OverrideCommission.Decimal.Equal(decimal.NewFromInt(-1000)) {
		t.Fatalf("expected negative override commission, got %s", breakdown.OverrideCommission.String())
	}
	if !breakdown.TotalWithholding.Decimal.IsNegative() {
		t.Fatalf("expected negative withholding, got %s", breakdown.TotalWithholding.String())
	}
}

func TestCalculateCommissionUnattributedAllZero(t *testing.T) {
	breakdown := CalculateCommission(
		decimal.NewFromInt(1000000),
		decimal.NewFromInt(200000),
		nil,
		nil,
		testTierContext(),
	)

	if !breakdown.BranchCommission.Decimal.IsZero() ||
		!breakdown.SalesCommission.Decimal.IsZero() ||
		!breakdown.OverrideCommission.Decimal.IsZero() ||
		!breakdown.TotalWithholding.Decimal.IsZero() {
		t.Fatalf("unattributed sale must yield all-zero breakdown: %+v", breakdown)
	}
	if !breakdown.NetRevenue.Decimal.Equal(decimal.NewFromInt(800000)) {
		t.Fatalf("net revenue still computed for reporting: %s", breakdown.NetRevenue.String())
	}
}

func TestCalculateCommissionRoundsOnceAtEnd(t *testing.T) {
	// 0.1% 比例在 333.33 净收入上产生 0.33333 → 最终截断为 0.33
	tier := TierContext{
		AgentRatePercent:       decimal.NewFromFloat(0.1),
		WithholdingRatePercent: decimal.NewFromInt(10),
	}
	breakdown := CalculateCommission(
		decimal.NewFromFloat(433.33),
		decimal.NewFromInt(100),
		nil,
		uintPtr(2),
		tier,
	)

	if !breakdown.SalesCommission.Decimal.Equal(decimal.NewFromFloat(0.33)) {
		t.Fatalf("expected truncation to 0.33, got %s", breakdown.SalesCommission.String())
	}
	// 代扣基于未舍入的佣金和计提后一次性截断
	if !breakdown.TotalWithholding.Decimal.Equal(decimal.NewFromFloat(0.03)) {
		t.Fatalf("expected withholding 0.03, got %s", breakdown.TotalWithholding.String())
	}
}
