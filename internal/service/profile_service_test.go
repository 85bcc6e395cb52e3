package service

import (
	"errors"
	"testing"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProfileServiceTest(t *testing.T) (*ProfileService, *gorm.DB) {
	t.Helper()
	db := setupEngineDB(t)
	svc := NewProfileService(repository.NewProfileRepository(db), repository.NewLedgerRepository(db), "KR")
	return svc, db
}

func TestCreateProfileGeneratesAffiliateCode(t *testing.T) {
	svc, _ := setupProfileServiceTest(t)

	profile, err := svc.CreateProfile(ProfileCreateInput{
		ProfileType: constants.AffiliateProfileTypeSalesAgent,
		DisplayName: "agent lee",
		Phone:       "010-2222-3333",
	})
	if err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	if len(profile.AffiliateCode) != affiliateCodeLength {
		t.Fatalf("unexpected code length: %s", profile.AffiliateCode)
	}
	if profile.Status != constants.AffiliateProfileStatusActive {
		t.Fatalf("unexpected status: %s", profile.Status)
	}
	if profile.Phone != "+821022223333" {
		t.Fatalf("phone must be normalized, got %s", profile.Phone)
	}
}

func TestCreateProfileRejectsUnknownType(t *testing.T) {
	svc, _ := setupProfileServiceTest(t)

	if _, err := svc.CreateProfile(ProfileCreateInput{ProfileType: "reseller", DisplayName: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAssignAgentEndsPreviousRelation(t *testing.T) {
	svc, db := setupProfileServiceTest(t)

	manager1 := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001", constants.AffiliateProfileStatusActive)
	manager2 := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR002", constants.AffiliateProfileStatusActive)
	agent := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusActive)

	first, err := svc.AssignAgent(agent.ID, manager1.ID)
	if err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	if first.ManagerProfileID != manager1.ID {
		t.Fatalf("unexpected manager: %d", first.ManagerProfileID)
	}

	// 重复同一归属为无操作
	same, err := svc.AssignAgent(agent.ID, manager1.ID)
	if err != nil {
		t.Fatalf("repeat assign failed: %v", err)
	}
	if same.ID != first.ID {
		t.Fatalf("repeat assign must keep existing relation")
	}

	second, err := svc.AssignAgent(agent.ID, manager2.ID)
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if second.ManagerProfileID != manager2.ID {
		t.Fatalf("unexpected manager after reassign: %d", second.ManagerProfileID)
	}

	var relations []models.AgentRelation
	if err := db.Where("agent_profile_id = ?", agent.ID).Order("id asc").Find(&relations).Error; err != nil {
		t.Fatalf("load relations failed: %v", err)
	}
	if len(relations) != 2 {
		t.Fatalf("history must be kept, got %d relations", len(relations))
	}
	if relations[0].Status != constants.AgentRelationStatusEnded || relations[0].EndedAt == nil {
		t.Fatalf("previous relation must be ended: %+v", relations[0])
	}
	if relations[1].Status != constants.AgentRelationStatusActive {
		t.Fatalf("new relation must be active: %+v", relations[1])
	}
}

func TestAssignAgentValidatesTypesAndStatus(t *testing.T) {
	svc, db := setupProfileServiceTest(t)

	manager := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001", constants.AffiliateProfileStatusActive)
	agent := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusActive)
	inactiveAgent := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT002", constants.AffiliateProfileStatusInactive)

	if _, err := svc.AssignAgent(manager.ID, manager.ID); !errors.Is(err, ErrProfileType) {
		t.Fatalf("manager as agent must be rejected, got %v", err)
	}
	if _, err := svc.AssignAgent(agent.ID, agent.ID); !errors.Is(err, ErrProfileType) {
		t.Fatalf("agent as manager must be rejected, got %v", err)
	}
	if _, err := svc.AssignAgent(inactiveAgent.ID, manager.ID); !errors.Is(err, ErrProfileInactive) {
		t.Fatalf("inactive agent must be rejected, got %v", err)
	}
	if _, err := svc.AssignAgent(9999, manager.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing agent must be rejected, got %v", err)
	}
}

func TestGetProfileDetailIncludesLedgerAggregate(t *testing.T) {
	svc, db := setupProfileServiceTest(t)

	manager := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001", constants.AffiliateProfileStatusActive)
	agent := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusActive)
	if _, err := svc.AssignAgent(agent.ID, manager.ID); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	sale := models.AffiliateSale{
		ProductCode: "CRUISE-7N",
		Currency:    "KRW",
		SaleAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(1000000)),
		CostAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(200000)),
		NetRevenue:  models.NewMoneyFromDecimal(decimal.NewFromInt(800000)),
		Status:      constants.SaleStatusConfirmed,
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	entries := []models.CommissionLedgerEntry{
		{
			SaleID:            sale.ID,
			ProfileID:         agent.ID,
			EntryType:         constants.LedgerEntryTypeSalesCommission,
			Amount:            models.NewMoneyFromDecimal(decimal.NewFromInt(40000)),
			WithholdingAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(1320)),
		},
		{
			SaleID:    sale.ID,
			ProfileID: agent.ID,
			EntryType: constants.LedgerEntryTypeWithholding,
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(-1320)),
		},
	}
	if err := db.Create(&entries).Error; err != nil {
		t.Fatalf("create entries failed: %v", err)
	}

	detail, err := svc.GetProfileDetail(agent.ID)
	if err != nil {
		t.Fatalf("get detail failed: %v", err)
	}
	if detail.ActiveManager == nil || detail.ActiveManager.ID != manager.ID {
		t.Fatalf("active manager missing: %+v", detail.ActiveManager)
	}
	if len(detail.RelationHistory) != 1 {
		t.Fatalf("unexpected relation history: %d", len(detail.RelationHistory))
	}
	if detail.EntryCount != 2 {
		t.Fatalf("unexpected entry count: %d", detail.EntryCount)
	}
	if !detail.GrossAmount.Decimal.Equal(decimal.NewFromInt(38680)) {
		t.Fatalf("unexpected gross amount: %s", detail.GrossAmount.String())
	}
	if !detail.UnsettledAmount.Decimal.Equal(decimal.NewFromInt(38680)) {
		t.Fatalf("unexpected unsettled amount: %s", detail.UnsettledAmount.String())
	}
}

func TestUpdateProfileStatus(t *testing.T) {
	svc, db := setupProfileServiceTest(t)

	profile := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusActive)

	updated, err := svc.UpdateProfileStatus(profile.ID, constants.AffiliateProfileStatusInactive)
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if updated.Status != constants.AffiliateProfileStatusInactive {
		t.Fatalf("unexpected status: %s", updated.Status)
	}

	if _, err := svc.UpdateProfileStatus(profile.ID, "suspended"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}
}
