package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupEngineDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:engine_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.AffiliateProfile{},
		&models.AgentRelation{},
		&models.AffiliateLead{},
		&models.AffiliateSale{},
		&models.CommissionLedgerEntry{},
		&models.CommissionTier{},
		&models.MallUser{},
		&models.SettlementBatch{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newEngineResolver(db *gorm.DB) *AttributionResolver {
	return NewAttributionResolver(
		repository.NewProfileRepository(db),
		repository.NewMallUserRepository(db),
		repository.NewLeadRepository(db),
		"KR",
	)
}

func createEngineProfile(t *testing.T, db *gorm.DB, profileType, code, status string) models.AffiliateProfile {
	t.Helper()
	profile := models.AffiliateProfile{
		ProfileType:   profileType,
		DisplayName:   "profile " + code,
		AffiliateCode: code,
		Status:        status,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return profile
}

func createEngineRelation(t *testing.T, db *gorm.DB, agentID, managerID uint) models.AgentRelation {
	t.Helper()
	relation := models.AgentRelation{
		AgentProfileID:   agentID,
		ManagerProfileID: managerID,
		Status:           constants.AgentRelationStatusActive,
		StartedAt:        time.Now().Add(-time.Hour),
	}
	if err := db.Create(&relation).Error; err != nil {
		t.Fatalf("create relation failed: %v", err)
	}
	return relation
}

func createEngineTier(t *testing.T, db *gorm.DB, cabinType string, isDefault bool) models.CommissionTier {
	t.Helper()
	tier := models.CommissionTier{
		CabinType:              cabinType,
		ManagerRatePercent:     models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		AgentRatePercent:       models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		OverrideRatePercent:    models.NewMoneyFromDecimal(decimal.NewFromInt(2)),
		WithholdingRatePercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.3)),
		IsDefault:              isDefault,
	}
	if err := db.Create(&tier).Error; err != nil {
		t.Fatalf("create tier failed: %v", err)
	}
	return tier
}

func TestResolveExplicitAgentHintDerivesActiveManager(t *testing.T) {
	db := setupEngineDB(t)
	resolver := newEngineResolver(db)

	manager := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001", constants.AffiliateProfileStatusActive)
	agent := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusActive)
	createEngineRelation(t, db, agent.ID, manager.ID)

	attribution, err := resolver.Resolve([]AttributionHint{ExplicitAgentHint{ProfileID: agent.ID}})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if attribution.AgentProfileID == nil || *attribution.AgentProfileID != agent.ID {
		t.Fatalf("expected agent %d, got %+v", agent.ID, attribution.AgentProfileID)
	}
	if attribution.ManagerProfileID == nil || *attribution.ManagerProfileID != manager.ID {
		t.Fatalf("expected derived manager %d, got %+v", manager.ID, attribution.ManagerProfileID)
	}
	if attribution.Source != constants.AttributionSourceExplicitAgent {
		t.Fatalf("unexpected source: %s", attribution.Source)
	}
}

func TestResolveAgentHintBeatsConflictingManagerHint(t *testing.T) {
	db := setupEngineDB(t)
	resolver := newEngineResolver(db)

	realManager := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001", constants.AffiliateProfileStatusActive)
	otherManager := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR002", constants.AffiliateProfileStatusActive)
	agent := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusActive)
	createEngineRelation(t, db, agent.ID, realManager.ID)

	// 提示顺序故意反转，解析按固定优先级进行
	attribution, err := resolver.Resolve([]AttributionHint{
		ExplicitManagerHint{ProfileID: otherManager.ID},
		ExplicitAgentHint{ProfileID: agent.ID},
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if attribution.AgentProfileID == nil || *attribution.AgentProfileID != agent.ID {
		t.Fatalf("agent hint must win: %+v", attribution)
	}
	if attribution.ManagerProfileID == nil || *attribution.ManagerProfileID != realManager.ID {
		t.Fatalf("manager must come from agent's active relation, not the conflicting hint: %+v", attribution)
	}
}

func TestResolveSoftFallbackOnStaleHints(t *testing.T) {
	db := setupEngineDB(t)
	resolver := newEngineResolver(db)

	inactive := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusInactive)
	manager := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001", constants.AffiliateProfileStatusActive)

	// 停用销售员提示未命中 → 软回退到联盟短ID
	attribution, err := resolver.Resolve([]AttributionHint{
		ExplicitAgentHint{ProfileID: inactive.ID},
		AffiliateCodeHint{Code: manager.AffiliateCode},
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if attribution.ManagerProfileID == nil || *attribution.ManagerProfileID != manager.ID {
		t.Fatalf("expected fallback to affiliate code, got %+v", attribution)
	}
	if attribution.Source != constants.AttributionSourceAffiliateCode {
		t.Fatalf("unexpected source: %s", attribution.Source)
	}
}

func TestResolveAffiliateCodeHQIsMiss(t *testing.T) {
	db := setupEngineDB(t)
	resolver := newEngineResolver(db)

	hq := createEngineProfile(t, db, constants.AffiliateProfileTypeHQ, "HQ0001", constants.AffiliateProfileStatusActive)

	attribution, err := resolver.Resolve([]AttributionHint{AffiliateCodeHint{Code: hq.AffiliateCode}})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if attribution.Attributed() {
		t.Fatalf("HQ code must not attribute: %+v", attribution)
	}
	if attribution.Source != constants.AttributionSourceNone {
		t.Fatalf("unexpected source: %s", attribution.Source)
	}
}

func TestResolveMallUserByNumericIDAndPhoneFallback(t *testing.T) {
	db := setupEngineDB(t)
	resolver := newEngineResolver(db)

	manager := createEngineProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001", constants.AffiliateProfileStatusActive)
	managerID := manager.ID
	user := models.MallUser{
		ID:                 501,
		DisplayName:        "mall partner",
		Phone:              "+821012345678",
		Role:               constants.MallUserRolePartner,
		AffiliateProfileID: &managerID,
		Status:             constants.AffiliateProfileStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create mall user failed: %v", err)
	}

	byID, err := resolver.Resolve([]AttributionHint{MallUserHint{UserKey: "501"}})
	if err != nil {
		t.Fatalf("resolve by id failed: %v", err)
	}
	if byID.ManagerProfileID == nil || *byID.ManagerProfileID != manager.ID {
		t.Fatalf("expected manager via mall user id, got %+v", byID)
	}

	// 本地格式手机号归一化为 E.164 后回退匹配 partner 用户
	byPhone, err := resolver.Resolve([]AttributionHint{MallUserHint{UserKey: "010-1234-5678"}})
	if err != nil {
		t.Fatalf("resolve by phone failed: %v", err)
	}
	if byPhone.ManagerProfileID == nil || *byPhone.ManagerProfileID != manager.ID {
		t.Fatalf("expected manager via phone fallback, got %+v", byPhone)
	}
	if byPhone.Source != constants.AttributionSourceMallUser {
		t.Fatalf("unexpected source: %s", byPhone.Source)
	}
}

func TestResolveLeadCopiesAttributionVerbatim(t *testing.T) {
	db := setupEngineDB(t)
	resolver := newEngineResolver(db)

	// 潜客归属指向一个此刻已停用的销售员：仍须逐字复制，不重新推导
	agent := createEngineProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGT001", constants.AffiliateProfileStatusInactive)
	agentID := agent.ID
	lead := models.AffiliateLead{
		CustomerName:   "customer",
		AgentProfileID: &agentID,
		Status:         constants.LeadStatusInProgress,
	}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("create lead failed: %v", err)
	}

	attribution, err := resolver.Resolve([]AttributionHint{LeadHint{LeadID: lead.ID}})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if attribution.AgentProfileID == nil || *attribution.AgentProfileID != agent.ID {
		t.Fatalf("lead attribution must be copied verbatim: %+v", attribution)
	}
	if attribution.ManagerProfileID != nil {
		t.Fatalf("lead had no manager, none must be derived: %+v", attribution)
	}
	if attribution.Source != constants.AttributionSourceLead {
		t.Fatalf("unexpected source: %s", attribution.Source)
	}
}

func TestResolveNoHintsUnattributed(t *testing.T) {
	db := setupEngineDB(t)
	resolver := newEngineResolver(db)

	attribution, err := resolver.Resolve(nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if attribution.Attributed() {
		t.Fatalf("expected unattributed result, got %+v", attribution)
	}
}
