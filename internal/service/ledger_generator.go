package service

import (
	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"
	"github.com/shopspring/decimal"
)

// GenerateLedgerEntries 将佣金分解展开为台账条目
// 每个 (档案, 条目类型) 至多一条，金额恰为零的条目不落库；
// 代扣按各档案自身佣金占比分摊为独立 WITHHOLDING 条目（金额为负的扣减行），
// 最后一个受益档案吸收舍入余数，保证分摊合计与 totalWithholding 精确一致
func GenerateLedgerEntries(breakdown Breakdown, managerProfileID, agentProfileID *uint) []models.CommissionLedgerEntry {
	type beneficiary struct {
		profileID  uint
		commission decimal.Decimal
	}

	entries := make([]models.CommissionLedgerEntry, 0, 5)
	beneficiaries := make([]*beneficiary, 0, 2)
	byProfile := make(map[uint]*beneficiary, 2)

	addCommission := func(profileID uint, entryType string, amount decimal.Decimal) {
		if amount.IsZero() {
			return
		}
		entries = append(entries, models.CommissionLedgerEntry{
			ProfileID: profileID,
			EntryType: entryType,
			Amount:    models.Money{Decimal: amount},
		})
		b, ok := byProfile[profileID]
		if !ok {
			b = &beneficiary{profileID: profileID}
			byProfile[profileID] = b
			beneficiaries = append(beneficiaries, b)
		}
		b.commission = b.commission.Add(amount)
	}

	if managerProfileID != nil {
		addCommission(*managerProfileID, constants.LedgerEntryTypeBranchCommission, breakdown.BranchCommission.Decimal)
	}
	if agentProfileID != nil {
		addCommission(*agentProfileID, constants.LedgerEntryTypeSalesCommission, breakdown.SalesCommission.Decimal)
	}
	if managerProfileID != nil {
		addCommission(*managerProfileID, constants.LedgerEntryTypeOverrideCommission, breakdown.OverrideCommission.Decimal)
	}

	totalWithholding := breakdown.TotalWithholding.Decimal
	commissionTotal := breakdown.CommissionTotal()
	if totalWithholding.IsZero() || commissionTotal.IsZero() || len(beneficiaries) == 0 {
		return entries
	}

	// 按占比分摊，末位档案吸收余数
	shares := make(map[uint]decimal.Decimal, len(beneficiaries))
	distributed := decimal.Zero
	for i, b := range beneficiaries {
		var share decimal.Decimal
		if i == len(beneficiaries)-1 {
			share = totalWithholding.Sub(distributed)
		} else {
			share = totalWithholding.Mul(b.commission).Div(commissionTotal).RoundDown(2)
			distributed = distributed.Add(share)
		}
		shares[b.profileID] = share
	}

	// 分摊额标注在该档案首条佣金条目上，便于对账
	annotated := make(map[uint]bool, len(beneficiaries))
	for i := range entries {
		share := shares[entries[i].ProfileID]
		if annotated[entries[i].ProfileID] || share.IsZero() {
			continue
		}
		entries[i].WithholdingAmount = models.Money{Decimal: share}
		annotated[entries[i].ProfileID] = true
	}

	for _, b := range beneficiaries {
		share := shares[b.profileID]
		if share.IsZero() {
			continue
		}
		entries = append(entries, models.CommissionLedgerEntry{
			ProfileID: b.profileID,
			EntryType: constants.LedgerEntryTypeWithholding,
			Amount:    models.Money{Decimal: share.Neg()},
		})
	}

	return entries
}
