package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/queue"
	"github.com/cruisemall-server/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type saleServiceFixture struct {
	db          *gorm.DB
	saleService *SaleService
	leadService *LeadService
	ledgerRepo  repository.LedgerRepository
	manager     models.AffiliateProfile
	agent       models.AffiliateProfile
}

func setupSaleServiceTest(t *testing.T) *saleServiceFixture {
	t.Helper()
	db := setupEngineDB(t)

	profileRepo := repository.NewProfileRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	tierRepo := repository.NewTierRepository(db)
	mallUserRepo := repository.NewMallUserRepository(db)

	resolver := NewAttributionResolver(profileRepo, mallUserRepo, leadRepo, "KR")
	leadService := NewLeadService(leadRepo, resolver, "KR")
	tierService := NewTierService(tierRepo, 0)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	saleService := NewSaleService(saleRepo, ledgerRepo, leadService, tierService, resolver, queueClient)

	manager := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001", constants.AffiliateProfileStatusActive)
	agent := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusActive)
	createEngineRelation(t, db, agent.ID, manager.ID)
	createEngineTier(t, db, "BALCONY", true)

	return &saleServiceFixture{
		db:          db,
		saleService: saleService,
		leadService: leadService,
		ledgerRepo:  ledgerRepo,
		manager:     manager,
		agent:       agent,
	}
}

func (f *saleServiceFixture) entryAmount(t *testing.T, entries []models.CommissionLedgerEntry, entryType string, profileID uint) decimal.Decimal {
	t.Helper()
	for _, entry := range entries {
		if entry.EntryType == entryType && entry.ProfileID == profileID && !entry.IsReversal {
			return entry.Amount.Decimal
		}
	}
	t.Fatalf("entry %s for profile %d not found", entryType, profileID)
	return decimal.Zero
}

func TestRecordSaleAgentWithManagerEndToEnd(t *testing.T) {
	f := setupSaleServiceTest(t)

	result, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		ExternalOrderCode: "ORD-20260301-001",
		ProductCode:       "CRUISE-7N",
		AgentID:           f.agent.ID,
		CabinType:         "balcony",
		SaleAmount:        decimal.NewFromInt(1000000),
		CostAmount:        decimal.NewFromInt(200000),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if result.Duplicate {
		t.Fatalf("first event must not be a duplicate")
	}

	sale := result.Sale
	if sale.Status != constants.SaleStatusConfirmed {
		t.Fatalf("unexpected sale status: %s", sale.Status)
	}
	if !sale.NetRevenue.Decimal.Equal(decimal.NewFromInt(800000)) {
		t.Fatalf("unexpected net revenue: %s", sale.NetRevenue.String())
	}
	if sale.AgentProfileID == nil || *sale.AgentProfileID != f.agent.ID {
		t.Fatalf("unexpected agent attribution: %+v", sale.AgentProfileID)
	}
	if sale.ManagerProfileID == nil || *sale.ManagerProfileID != f.manager.ID {
		t.Fatalf("unexpected manager attribution: %+v", sale.ManagerProfileID)
	}

	entries, err := f.ledgerRepo.ListBySale(sale.ID)
	if err != nil {
		t.Fatalf("list entries failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 ledger entries, got %d", len(entries))
	}
	if got := f.entryAmount(t, entries, constants.LedgerEntryTypeSalesCommission, f.agent.ID); !got.Equal(decimal.NewFromInt(40000)) {
		t.Fatalf("unexpected sales commission: %s", got)
	}
	if got := f.entryAmount(t, entries, constants.LedgerEntryTypeOverrideCommission, f.manager.ID); !got.Equal(decimal.NewFromInt(16000)) {
		t.Fatalf("unexpected override commission: %s", got)
	}
	if got := f.entryAmount(t, entries, constants.LedgerEntryTypeWithholding, f.agent.ID); !got.Equal(decimal.NewFromInt(-1320)) {
		t.Fatalf("unexpected agent withholding: %s", got)
	}
	if got := f.entryAmount(t, entries, constants.LedgerEntryTypeWithholding, f.manager.ID); !got.Equal(decimal.NewFromInt(-528)) {
		t.Fatalf("unexpected manager withholding: %s", got)
	}
}

func TestRecordSaleDuplicateOrderCodeIsIdempotent(t *testing.T) {
	f := setupSaleServiceTest(t)

	first, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		ExternalOrderCode: "ORD-DUP-001",
		ProductCode:       "CRUISE-7N",
		AgentID:           f.agent.ID,
		CabinType:         "balcony",
		SaleAmount:        decimal.NewFromInt(1000000),
		CostAmount:        decimal.NewFromInt(200000),
	})
	if err != nil {
		t.Fatalf("first record failed: %v", err)
	}

	// 重投携带被篡改的金额：必须丢弃新值，按既有记录返回
	second, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		ExternalOrderCode: "ORD-DUP-001",
		ProductCode:       "CRUISE-7N",
		AgentID:           f.agent.ID,
		CabinType:         "balcony",
		SaleAmount:        decimal.NewFromInt(5000000),
		CostAmount:        decimal.NewFromInt(100000),
	})
	if err != nil {
		t.Fatalf("duplicate record failed: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("expected duplicate flag")
	}
	if second.Sale.ID != first.Sale.ID {
		t.Fatalf("duplicate must return the existing sale: %d vs %d", second.Sale.ID, first.Sale.ID)
	}
	if !second.Sale.NetRevenue.Decimal.Equal(decimal.NewFromInt(800000)) {
		t.Fatalf("duplicate must keep the original amounts: %s", second.Sale.NetRevenue.String())
	}
	if !second.Breakdown.SalesCommission.Decimal.Equal(decimal.NewFromInt(40000)) {
		t.Fatalf("rebuilt sales commission mismatch: %s", second.Breakdown.SalesCommission.String())
	}
	if !second.Breakdown.TotalWithholding.Decimal.Equal(decimal.NewFromInt(1848)) {
		t.Fatalf("rebuilt withholding mismatch: %s", second.Breakdown.TotalWithholding.String())
	}

	entries, err := f.ledgerRepo.ListBySale(first.Sale.ID)
	if err != nil {
		t.Fatalf("list entries failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("duplicate must not append entries, got %d", len(entries))
	}
}

func TestRecordSaleUnattributedPersistsWithoutEntries(t *testing.T) {
	f := setupSaleServiceTest(t)

	result, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		ExternalOrderCode: "ORD-ORGANIC-001",
		ProductCode:       "CRUISE-3N",
		CabinType:         "balcony",
		SaleAmount:        decimal.NewFromInt(500000),
		CostAmount:        decimal.NewFromInt(100000),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if result.Sale.AttributionSource != constants.AttributionSourceNone {
		t.Fatalf("unexpected attribution source: %s", result.Sale.AttributionSource)
	}
	if !result.Sale.NetRevenue.Decimal.Equal(decimal.NewFromInt(400000)) {
		t.Fatalf("net revenue still recorded: %s", result.Sale.NetRevenue.String())
	}

	entries, err := f.ledgerRepo.ListBySale(result.Sale.ID)
	if err != nil {
		t.Fatalf("list entries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("unattributed sale must not generate entries, got %d", len(entries))
	}
}

func TestRecordSaleValidatesInput(t *testing.T) {
	f := setupSaleServiceTest(t)

	if _, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		SaleAmount: decimal.NewFromInt(1000),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing product code, got %v", err)
	}
	if _, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		ProductCode: "CRUISE-7N",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero amount, got %v", err)
	}
}

func TestRecordSaleMarksLeadPurchasedInline(t *testing.T) {
	f := setupSaleServiceTest(t)

	agentID := f.agent.ID
	lead := models.AffiliateLead{
		CustomerName:   "lead customer",
		AgentProfileID: &agentID,
		Status:         constants.LeadStatusInProgress,
	}
	if err := f.db.Create(&lead).Error; err != nil {
		t.Fatalf("create lead failed: %v", err)
	}

	result, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		ExternalOrderCode: "ORD-LEAD-001",
		LeadID:            lead.ID,
		ProductCode:       "CRUISE-7N",
		CabinType:         "balcony",
		SaleAmount:        decimal.NewFromInt(1000000),
		CostAmount:        decimal.NewFromInt(200000),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if result.Sale.LeadID == nil || *result.Sale.LeadID != lead.ID {
		t.Fatalf("sale must keep lead linkage: %+v", result.Sale.LeadID)
	}

	var updated models.AffiliateLead
	if err := f.db.First(&updated, lead.ID).Error; err != nil {
		t.Fatalf("reload lead failed: %v", err)
	}
	if updated.Status != constants.LeadStatusPurchased {
		t.Fatalf("lead must be marked purchased, got %s", updated.Status)
	}
	if updated.PurchasedAt == nil {
		t.Fatalf("purchased_at must be set")
	}
}

func TestReverseSaleAppendsNegatedEntries(t *testing.T) {
	f := setupSaleServiceTest(t)

	recorded, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		ExternalOrderCode: "ORD-REV-001",
		ProductCode:       "CRUISE-7N",
		AgentID:           f.agent.ID,
		CabinType:         "balcony",
		SaleAmount:        decimal.NewFromInt(1000000),
		CostAmount:        decimal.NewFromInt(200000),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	reversed, err := f.saleService.ReverseSale(recorded.Sale.ID)
	if err != nil {
		t.Fatalf("reverse sale failed: %v", err)
	}
	if reversed.Status != constants.SaleStatusRefunded {
		t.Fatalf("unexpected status after reversal: %s", reversed.Status)
	}

	entries, err := f.ledgerRepo.ListBySale(recorded.Sale.ID)
	if err != nil {
		t.Fatalf("list entries failed: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected original + reversal entries, got %d", len(entries))
	}
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount.Decimal)
	}
	if !total.IsZero() {
		t.Fatalf("reversal must zero out the sale ledger, got %s", total)
	}

	if _, err := f.saleService.ReverseSale(recorded.Sale.ID); !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrAlreadyReversed) {
		t.Fatalf("second reversal must be rejected, got %v", err)
	}
}

func TestUpdateSaleStatusFollowsTransitionTable(t *testing.T) {
	f := setupSaleServiceTest(t)

	recorded, err := f.saleService.RecordSale(context.Background(), RecordSaleInput{
		ExternalOrderCode: "ORD-STATUS-001",
		ProductCode:       "CRUISE-7N",
		AgentID:           f.agent.ID,
		CabinType:         "balcony",
		SaleAmount:        decimal.NewFromInt(1000000),
		CostAmount:        decimal.NewFromInt(200000),
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	if _, err := f.saleService.UpdateSaleStatus(recorded.Sale.ID, constants.SaleStatusPayoutScheduled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("confirmed -> payout_scheduled must be rejected, got %v", err)
	}

	paid, err := f.saleService.UpdateSaleStatus(recorded.Sale.ID, constants.SaleStatusPaid)
	if err != nil {
		t.Fatalf("confirmed -> paid failed: %v", err)
	}
	if paid.Status != constants.SaleStatusPaid {
		t.Fatalf("unexpected status: %s", paid.Status)
	}

	scheduled, err := f.saleService.UpdateSaleStatus(recorded.Sale.ID, constants.SaleStatusPayoutScheduled)
	if err != nil {
		t.Fatalf("paid -> payout_scheduled failed: %v", err)
	}
	if scheduled.Status != constants.SaleStatusPayoutScheduled {
		t.Fatalf("unexpected status: %s", scheduled.Status)
	}
}
