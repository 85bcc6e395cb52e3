package main

import (
	"log"
	"time"

	"github.com/cruisemall-server/internal/config"
	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 佣金档位：内舱为兜底档位
	tiers := []models.CommissionTier{
		{
			CabinType:              "INTERIOR",
			ManagerRatePercent:     models.NewMoneyFromDecimal(decimal.NewFromFloat(8)),
			AgentRatePercent:       models.NewMoneyFromDecimal(decimal.NewFromFloat(4)),
			OverrideRatePercent:    models.NewMoneyFromDecimal(decimal.NewFromFloat(1.5)),
			WithholdingRatePercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.3)),
			IsDefault:              true,
		},
		{
			CabinType:              "OCEANVIEW",
			ManagerRatePercent:     models.NewMoneyFromDecimal(decimal.NewFromFloat(9)),
			AgentRatePercent:       models.NewMoneyFromDecimal(decimal.NewFromFloat(4.5)),
			OverrideRatePercent:    models.NewMoneyFromDecimal(decimal.NewFromFloat(1.8)),
			WithholdingRatePercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.3)),
		},
		{
			CabinType:              "BALCONY",
			ManagerRatePercent:     models.NewMoneyFromDecimal(decimal.NewFromFloat(10)),
			AgentRatePercent:       models.NewMoneyFromDecimal(decimal.NewFromFloat(5)),
			OverrideRatePercent:    models.NewMoneyFromDecimal(decimal.NewFromFloat(2)),
			WithholdingRatePercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.3)),
		},
		{
			CabinType:              "SUITE",
			ManagerRatePercent:     models.NewMoneyFromDecimal(decimal.NewFromFloat(12)),
			AgentRatePercent:       models.NewMoneyFromDecimal(decimal.NewFromFloat(6)),
			OverrideRatePercent:    models.NewMoneyFromDecimal(decimal.NewFromFloat(2.5)),
			WithholdingRatePercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.3)),
		},
	}
	for _, tier := range tiers {
		var existing models.CommissionTier
		if err := models.DB.Where("cabin_type = ?", tier.CabinType).First(&existing).Error; err != nil {
			if err := models.DB.Create(&tier).Error; err != nil {
				stdLog.Printf("Failed to create tier %s: %v", tier.CabinType, err)
			} else {
				stdLog.Printf("Created tier: %s", tier.CabinType)
			}
		} else {
			stdLog.Printf("Tier already exists: %s", tier.CabinType)
		}
	}

	// 推广层级：一个分店长带两个销售员
	manager := ensureProfile(stdLog, models.AffiliateProfile{
		ProfileType:   constants.AffiliateProfileTypeBranchManager,
		DisplayName:   "首尔一号店",
		AffiliateCode: "SEOULB1",
		Phone:         "+821055550001",
		Status:        constants.AffiliateProfileStatusActive,
	})
	agentA := ensureProfile(stdLog, models.AffiliateProfile{
		ProfileType:   constants.AffiliateProfileTypeSalesAgent,
		DisplayName:   "김하늘",
		AffiliateCode: "AGTHANL",
		Phone:         "+821055550002",
		Status:        constants.AffiliateProfileStatusActive,
	})
	agentB := ensureProfile(stdLog, models.AffiliateProfile{
		ProfileType:   constants.AffiliateProfileTypeSalesAgent,
		DisplayName:   "박서준",
		AffiliateCode: "AGTSJUN",
		Phone:         "+821055550003",
		Status:        constants.AffiliateProfileStatusActive,
	})

	if manager != nil {
		for _, agent := range []*models.AffiliateProfile{agentA, agentB} {
			if agent == nil {
				continue
			}
			var existing models.AgentRelation
			err := models.DB.Where("agent_profile_id = ? AND status = ?", agent.ID, constants.AgentRelationStatusActive).First(&existing).Error
			if err == nil {
				stdLog.Printf("Relation already exists for agent %s", agent.AffiliateCode)
				continue
			}
			relation := models.AgentRelation{
				AgentProfileID:   agent.ID,
				ManagerProfileID: manager.ID,
				Status:           constants.AgentRelationStatusActive,
				StartedAt:        time.Now(),
			}
			if err := models.DB.Create(&relation).Error; err != nil {
				stdLog.Printf("Failed to create relation for agent %s: %v", agent.AffiliateCode, err)
			} else {
				stdLog.Printf("Created relation: %s -> %s", agent.AffiliateCode, manager.AffiliateCode)
			}
		}
	}

	// 商城侧用户：合作伙伴账号挂到销售员档案
	if agentA != nil {
		agentAID := agentA.ID
		ensureMallUser(stdLog, models.MallUser{
			DisplayName:        "김하늘",
			Phone:              "+821055550002",
			Role:               constants.MallUserRolePartner,
			AffiliateProfileID: &agentAID,
			Status:             constants.AffiliateProfileStatusActive,
		})
	}
	ensureMallUser(stdLog, models.MallUser{
		DisplayName: "이민지",
		Phone:       "+821066660001",
		Role:        constants.MallUserRoleCustomer,
		Status:      constants.AffiliateProfileStatusActive,
	})

	// 示范潜客：已有归属的新潜客
	if agentA != nil && manager != nil {
		var existing models.AffiliateLead
		if err := models.DB.Where("customer_phone = ?", "+821066660001").First(&existing).Error; err != nil {
			agentID := agentA.ID
			managerID := manager.ID
			lead := models.AffiliateLead{
				CustomerName:     "이민지",
				CustomerPhone:    "+821066660001",
				ManagerProfileID: &managerID,
				AgentProfileID:   &agentID,
				Status:           constants.LeadStatusNew,
				Memo:             "지중해 크루즈 문의",
			}
			if err := models.DB.Create(&lead).Error; err != nil {
				stdLog.Printf("Failed to create demo lead: %v", err)
			} else {
				stdLog.Printf("Created demo lead: %s", lead.CustomerName)
			}
		} else {
			stdLog.Printf("Demo lead already exists")
		}
	}

	stdLog.Printf("Seed finished")
}

func ensureProfile(stdLog *log.Logger, profile models.AffiliateProfile) *models.AffiliateProfile {
	var existing models.AffiliateProfile
	if err := models.DB.Where("affiliate_code = ?", profile.AffiliateCode).First(&existing).Error; err == nil {
		stdLog.Printf("Profile already exists: %s", profile.AffiliateCode)
		return &existing
	}
	if err := models.DB.Create(&profile).Error; err != nil {
		stdLog.Printf("Failed to create profile %s: %v", profile.AffiliateCode, err)
		return nil
	}
	stdLog.Printf("Created profile: %s (%s)", profile.AffiliateCode, profile.ProfileType)
	return &profile
}

func ensureMallUser(stdLog *log.Logger, user models.MallUser) {
	var existing models.MallUser
	if err := models.DB.Where("phone = ?", user.Phone).First(&existing).Error; err == nil {
		stdLog.Printf("Mall user already exists: %s", user.Phone)
		return
	}
	if err := models.DB.Create(&user).Error; err != nil {
		stdLog.Printf("Failed to create mall user %s: %v", user.Phone, err)
		return
	}
	stdLog.Printf("Created mall user: %s (%s)", user.DisplayName, user.Role)
}
