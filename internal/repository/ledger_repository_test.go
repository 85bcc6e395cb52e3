package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupLedgerRepositoryTest(t *testing.T) (*GormLedgerRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.AffiliateProfile{},
		&models.AffiliateSale{},
		&models.CommissionLedgerEntry{},
		&models.SettlementBatch{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewLedgerRepository(db), db
}

func createLedgerTestSale(t *testing.T, db *gorm.DB, orderCode string) models.AffiliateSale {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	code := orderCode
	sale := models.AffiliateSale{
		ExternalOrderCode: &code,
		ProductCode:       "CRUISE-7N-MED",
		CabinType:         "BALCONY",
		AttributionSource: constants.AttributionSourceExplicitAgent,
		Currency:          "KRW",
		SaleAmount:        models.NewMoneyFromDecimal(decimal.NewFromInt(3000000)),
		CostAmount:        models.NewMoneyFromDecimal(decimal.NewFromInt(2400000)),
		NetRevenue:        models.NewMoneyFromDecimal(decimal.NewFromInt(600000)),
		Status:            constants.SaleStatusConfirmed,
		SaleDate:          now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	return sale
}

func TestLedgerRepositoryCreateBatchAndListBySale(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)
	sale := createLedgerTestSale(t, db, "MALL-ORD-1001")

	entries := []models.CommissionLedgerEntry{
		{
			SaleID:    sale.ID,
			ProfileID: 11,
			EntryType: constants.LedgerEntryTypeSalesCommission,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(30000)),
		},
		{
			SaleID:    sale.ID,
			ProfileID: 12,
			EntryType: constants.LedgerEntryTypeOverrideCommission,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(12000)),
		},
	}
	if err := repo.CreateBatch(entries); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	rows, err := repo.ListBySale(sale.ID)
	if err != nil {
		t.Fatalf("list by sale failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(rows))
	}
	if rows[0].EntryType != constants.LedgerEntryTypeSalesCommission {
		t.Fatalf("unexpected first entry type: %s", rows[0].EntryType)
	}
	if !rows[1].Amount.Decimal.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("unexpected second entry amount: %s", rows[1].Amount.String())
	}
}

func TestLedgerRepositoryMarkSettledSkipsAlreadySettled(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)
	sale := createLedgerTestSale(t, db, "MALL-ORD-1002")

	settledAt := time.Now().UTC().Truncate(time.Second)
	entries := []models.CommissionLedgerEntry{
		{
			SaleID:    sale.ID,
			ProfileID: 21,
			EntryType: constants.LedgerEntryTypeBranchCommission,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(50000)),
		},
		{
			SaleID:    sale.ID,
			ProfileID: 21,
			EntryType: constants.LedgerEntryTypeWithholding,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(-1650)),
			IsSettled: true,
		},
	}
	if err := repo.CreateBatch(entries); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	batch := models.SettlementBatch{CutoffAt: settledAt, CreatedAt: settledAt}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("create batch row failed: %v", err)
	}

	affected, err := repo.MarkSettled([]uint{entries[0].ID, entries[1].ID}, batch.ID, settledAt)
	if err != nil {
		t.Fatalf("mark settled failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected row, got %d", affected)
	}

	var reloaded models.CommissionLedgerEntry
	if err := db.First(&reloaded, entries[0].ID).Error; err != nil {
		t.Fatalf("reload entry failed: %v", err)
	}
	if !reloaded.IsSettled || reloaded.SettlementBatchID == nil || *reloaded.SettlementBatchID != batch.ID {
		t.Fatalf("entry not marked with batch: settled=%v batch=%v", reloaded.IsSettled, reloaded.SettlementBatchID)
	}
}

func TestLedgerRepositoryListUnsettledRespectsCutoff(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)
	sale := createLedgerTestSale(t, db, "MALL-ORD-1003")

	old := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	recent := time.Now().UTC().Truncate(time.Second)
	entries := []models.CommissionLedgerEntry{
		{
			SaleID:    sale.ID,
			ProfileID: 31,
			EntryType: constants.LedgerEntryTypeSalesCommission,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(1000)),
			CreatedAt: old,
		},
		{
			SaleID:    sale.ID,
			ProfileID: 31,
			EntryType: constants.LedgerEntryTypeSalesCommission,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(2000)),
			CreatedAt: recent,
		},
	}
	if err := repo.CreateBatch(entries); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	rows, err := repo.ListUnsettledForUpdate(cutoff, 100)
	if err != nil {
		t.Fatalf("list unsettled failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 entry before cutoff, got %d", len(rows))
	}
	if !rows[0].Amount.Decimal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected entry amount: %s", rows[0].Amount.String())
	}
}

func TestLedgerRepositorySumByProfile(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)
	sale := createLedgerTestSale(t, db, "MALL-ORD-1004")

	entries := []models.CommissionLedgerEntry{
		{
			SaleID:            sale.ID,
			ProfileID:         41,
			EntryType:         constants.LedgerEntryTypeBranchCommission,
			Amount:            models.NewMoneyFromDecimal(decimal.NewFromInt(30000)),
			WithholdingAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(990)),
		},
		{
			SaleID:    sale.ID,
			ProfileID: 41,
			EntryType: constants.LedgerEntryTypeWithholding,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(-990)),
			IsSettled: true,
		},
		{
			SaleID:    sale.ID,
			ProfileID: 42,
			EntryType: constants.LedgerEntryTypeSalesCommission,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(5000)),
		},
	}
	if err := repo.CreateBatch(entries); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	aggregate, err := repo.SumByProfile(41)
	if err != nil {
		t.Fatalf("sum by profile failed: %v", err)
	}
	if aggregate.EntryCount != 2 {
		t.Fatalf("expected 2 entries, got %d", aggregate.EntryCount)
	}
	if !aggregate.GrossAmount.Equal(decimal.NewFromInt(29010)) {
		t.Fatalf("unexpected gross amount: %s", aggregate.GrossAmount.String())
	}
	if !aggregate.UnsettledAmount.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("unexpected unsettled amount: %s", aggregate.UnsettledAmount.String())
	}
}
