package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
// finance 掌管销售/台账/结算，operations 掌管档案/潜客/档位
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
		},
		{
			Role:     "operations",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/profiles", Action: "*"},
				{Object: "/admin/profiles/:id", Action: "*"},
				{Object: "/admin/profiles/:id/status", Action: "*"},
				{Object: "/admin/profiles/:id/manager", Action: "*"},
				{Object: "/admin/managers/:id/agents", Action: "GET"},
				{Object: "/admin/leads", Action: "*"},
				{Object: "/admin/leads/:id", Action: "*"},
				{Object: "/admin/leads/:id/status", Action: "*"},
				{Object: "/admin/tiers", Action: "*"},
				{Object: "/admin/tiers/:id", Action: "*"},
			},
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/sales", Action: "*"},
				{Object: "/admin/sales/:id", Action: "*"},
				{Object: "/admin/sales/:id/status", Action: "*"},
				{Object: "/admin/sales/:id/reverse", Action: "*"},
				{Object: "/admin/ledger", Action: "GET"},
				{Object: "/admin/settlements", Action: "*"},
				{Object: "/admin/settlements/:id", Action: "GET"},
				{Object: "/admin/settlements/:id/entries", Action: "GET"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
