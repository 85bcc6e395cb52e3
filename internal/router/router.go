package router

import (
	"fmt"
	"strings"

	"github.com/cruisemall-server/internal/config"
	adminhandlers "github.com/cruisemall-server/internal/http/handlers/admin"
	publichandlers "github.com/cruisemall-server/internal/http/handlers/public"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cm"
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
		Message:       "登录尝试过于频繁，请稍后再试",
	}
	webhookRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:webhook", redisPrefix),
		WindowSeconds: cfg.Security.WebhookRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WebhookRateLimit.MaxRequests,
		Message:       "请求过于频繁，请稍后再试",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口：商城回调与落地页潜客登记
		public := apiV1.Group("/public")
		{
			public.POST("/sales/webhook", RateLimitMiddleware(webhookRule, KeyByIP), publicHandler.BookingWebhook)
			public.POST("/leads", RateLimitMiddleware(webhookRule, KeyByIP), publicHandler.CreateLead)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetAdminMe)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 推广档案与层级关系
				authorized.GET("/profiles", adminHandler.ListProfiles)
				authorized.POST("/profiles", adminHandler.CreateProfile)
				authorized.GET("/profiles/:id", adminHandler.GetProfile)
				authorized.PUT("/profiles/:id/status", adminHandler.UpdateProfileStatus)
				authorized.POST("/profiles/:id/manager", adminHandler.AssignAgentManager)
				authorized.DELETE("/profiles/:id/manager", adminHandler.UnassignAgentManager)
				authorized.GET("/managers/:id/agents", adminHandler.ListManagerAgents)

				// 潜客管理
				authorized.GET("/leads", adminHandler.ListLeads)
				authorized.POST("/leads", adminHandler.CreateLead)
				authorized.GET("/leads/:id", adminHandler.GetLead)
				authorized.PUT("/leads/:id/status", adminHandler.UpdateLeadStatus)

				// 销售与佣金台账
				authorized.GET("/sales", adminHandler.ListSales)
				authorized.POST("/sales", adminHandler.RecordSale)
				authorized.GET("/sales/:id", adminHandler.GetSale)
				authorized.PUT("/sales/:id/status", adminHandler.UpdateSaleStatus)
				authorized.POST("/sales/:id/reverse", adminHandler.ReverseSale)
				authorized.GET("/ledger", adminHandler.ListLedgerEntries)

				// 佣金档位
				authorized.GET("/tiers", adminHandler.ListTiers)
				authorized.POST("/tiers", adminHandler.CreateTier)
				authorized.PUT("/tiers/:id", adminHandler.UpdateTier)
				authorized.DELETE("/tiers/:id", adminHandler.DeleteTier)

				// 结算批次
				authorized.GET("/settlements", adminHandler.ListSettlementBatches)
				authorized.POST("/settlements", adminHandler.RunSettlement)
				authorized.GET("/settlements/:id", adminHandler.GetSettlementBatch)
				authorized.GET("/settlements/:id/entries", adminHandler.ListSettlementBatchEntries)

				// 权限管理（内置角色由启动时初始化，这里仅做差异化调整）
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	return r
}
