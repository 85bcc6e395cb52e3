package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupProfileRepositoryTest(t *testing.T) (*GormProfileRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:profile_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.AffiliateProfile{},
		&models.AgentRelation{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewProfileRepository(db), db
}

func createTestProfile(t *testing.T, db *gorm.DB, profileType, code string) models.AffiliateProfile {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	profile := models.AffiliateProfile{
		ProfileType:   profileType,
		DisplayName:   "profile " + code,
		AffiliateCode: code,
		Status:        constants.AffiliateProfileStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return profile
}

func TestProfileRepositoryGetByCodeNormalizesInput(t *testing.T) {
	repo, db := setupProfileRepositoryTest(t)
	createTestProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AG7K2M")

	found, err := repo.GetByCode("  ag7k2m ")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected profile for lowercase code with spaces")
	}
	if found.AffiliateCode != "AG7K2M" {
		t.Fatalf("unexpected code: %s", found.AffiliateCode)
	}

	missing, err := repo.GetByCode("UNKNOWN")
	if err != nil {
		t.Fatalf("get missing code failed: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown code")
	}
}

func TestProfileRepositoryEndActiveRelationsKeepsHistory(t *testing.T) {
	repo, db := setupProfileRepositoryTest(t)
	agent := createTestProfile(t, db, constants.AffiliateProfileTypeSalesAgent, "AGENT1")
	manager1 := createTestProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR001")
	manager2 := createTestProfile(t, db, constants.AffiliateProfileTypeBranchManager, "MGR002")

	started := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	relation := models.AgentRelation{
		AgentProfileID:   agent.ID,
		ManagerProfileID: manager1.ID,
		Status:           constants.AgentRelationStatusActive,
		StartedAt:        started,
	}
	if err := repo.CreateRelation(&relation); err != nil {
		t.Fatalf("create relation failed: %v", err)
	}

	endedAt := time.Now().UTC().Truncate(time.Second)
	affected, err := repo.EndActiveRelations(agent.ID, endedAt)
	if err != nil {
		t.Fatalf("end active relations failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 ended relation, got %d", affected)
	}

	replacement := models.AgentRelation{
		AgentProfileID:   agent.ID,
		ManagerProfileID: manager2.ID,
		Status:           constants.AgentRelationStatusActive,
		StartedAt:        endedAt,
	}
	if err := repo.CreateRelation(&replacement); err != nil {
		t.Fatalf("create replacement relation failed: %v", err)
	}

	active, err := repo.GetActiveRelationByAgent(agent.ID)
	if err != nil {
		t.Fatalf("get active relation failed: %v", err)
	}
	if active == nil || active.ManagerProfileID != manager2.ID {
		t.Fatalf("expected active relation to manager2, got %+v", active)
	}

	history, err := repo.ListRelationsByAgent(agent.ID)
	if err != nil {
		t.Fatalf("list relations failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 relations in history, got %d", len(history))
	}
}
