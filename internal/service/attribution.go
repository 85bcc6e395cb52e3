package service

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/repository"
)

// AttributionHint 归因提示（带标签变体，按固定优先级解析）
type AttributionHint interface {
	hintPriority() int
	hintSource() string
}

// ExplicitAgentHint 显式销售员ID提示
type ExplicitAgentHint struct {
	ProfileID uint
}

// ExplicitManagerHint 显式分店长ID提示
type ExplicitManagerHint struct {
	ProfileID uint
}

// AffiliateCodeHint 联盟短ID提示
type AffiliateCodeHint struct {
	Code string
}

// MallUserHint 商城用户提示（数字ID，非数字时按手机号回退查询 partner 用户）
type MallUserHint struct {
	UserKey string
}

// LeadHint 潜客提示（逐字复制潜客自身归属，不重新推导）
type LeadHint struct {
	LeadID uint
}

func (ExplicitAgentHint) hintPriority() int   { return 1 }
func (ExplicitManagerHint) hintPriority() int { return 2 }
func (AffiliateCodeHint) hintPriority() int   { return 3 }
func (MallUserHint) hintPriority() int        { return 4 }
func (LeadHint) hintPriority() int            { return 5 }

func (ExplicitAgentHint) hintSource() string   { return constants.AttributionSourceExplicitAgent }
func (ExplicitManagerHint) hintSource() string { return constants.AttributionSourceExplicitManager }
func (AffiliateCodeHint) hintSource() string   { return constants.AttributionSourceAffiliateCode }
func (MallUserHint) hintSource() string        { return constants.AttributionSourceMallUser }
func (LeadHint) hintSource() string            { return constants.AttributionSourceLead }

// Attribution 归因解析结果
type Attribution struct {
	ManagerProfileID *uint
	AgentProfileID   *uint
	Source           string
}

// Attributed 是否解析出任一受益档案
func (a Attribution) Attributed() bool {
	return a.ManagerProfileID != nil || a.AgentProfileID != nil
}

// AttributionResolver 归因解析器
// 按优先级逐条尝试提示，未命中软回退到下一条，整体未命中返回无归因而非错误
type AttributionResolver struct {
	profileRepo  repository.ProfileRepository
	mallUserRepo repository.MallUserRepository
	leadRepo     repository.LeadRepository
	phoneRegion  string
}

// NewAttributionResolver 创建归因解析器
func NewAttributionResolver(
	profileRepo repository.ProfileRepository,
	mallUserRepo repository.MallUserRepository,
	leadRepo repository.LeadRepository,
	phoneRegion string,
) *AttributionResolver {
	return &AttributionResolver{
		profileRepo:  profileRepo,
		mallUserRepo: mallUserRepo,
		leadRepo:     leadRepo,
		phoneRegion:  phoneRegion,
	}
}

// Resolve 解析归因提示，返回 (分店长, 销售员) 档案对
// 提示顺序与调用方无关，内部按固定优先级排序后取首个命中
func (r *AttributionResolver) Resolve(hints []AttributionHint) (Attribution, error) {
	ordered := make([]AttributionHint, 0, len(hints))
	for _, hint := range hints {
		if hint == nil {
			continue
		}
		ordered = append(ordered, hint)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].hintPriority() < ordered[j].hintPriority()
	})

	for _, hint := range ordered {
		attribution, matched, err := r.resolveOne(hint)
		if err != nil {
			return Attribution{}, err
		}
		if matched {
			attribution.Source = hint.hintSource()
			return attribution, nil
		}
		logger.Infow("attribution_hint_miss", "source", hint.hintSource())
	}
	return Attribution{Source: constants.AttributionSourceNone}, nil
}

func (r *AttributionResolver) resolveOne(hint AttributionHint) (Attribution, bool, error) {
	switch h := hint.(type) {
	case ExplicitAgentHint:
		return r.resolveAgent(h.ProfileID)
	case ExplicitManagerHint:
		return r.resolveManager(h.ProfileID)
	case AffiliateCodeHint:
		profile, err := r.profileRepo.GetByCode(h.Code)
		if err != nil {
			return Attribution{}, false, err
		}
		return r.resolveByProfile(profile)
	case MallUserHint:
		return r.resolveMallUser(h.UserKey)
	case LeadHint:
		return r.resolveLead(h.LeadID)
	default:
		return Attribution{}, false, nil
	}
}

// resolveAgent 案例1：显式销售员，附带其当前生效分店长
func (r *AttributionResolver) resolveAgent(profileID uint) (Attribution, bool, error) {
	profile, err := r.profileRepo.GetByID(profileID)
	if err != nil {
		return Attribution{}, false, err
	}
	if profile == nil ||
		profile.Status != constants.AffiliateProfileStatusActive ||
		profile.ProfileType != constants.AffiliateProfileTypeSalesAgent {
		return Attribution{}, false, nil
	}

	attribution := Attribution{AgentProfileID: &profile.ID}
	relation, err := r.profileRepo.GetActiveRelationByAgent(profile.ID)
	if err != nil {
		return Attribution{}, false, err
	}
	if relation != nil {
		managerID := relation.ManagerProfileID
		attribution.ManagerProfileID = &managerID
	}
	return attribution, true, nil
}

// resolveManager 案例2：显式分店长直销
func (r *AttributionResolver) resolveManager(profileID uint) (Attribution, bool, error) {
	profile, err := r.profileRepo.GetByID(profileID)
	if err != nil {
		return Attribution{}, false, err
	}
	if profile == nil ||
		profile.Status != constants.AffiliateProfileStatusActive ||
		profile.ProfileType != constants.AffiliateProfileTypeBranchManager {
		return Attribution{}, false, nil
	}
	return Attribution{ManagerProfileID: &profile.ID}, true, nil
}

// resolveByProfile 按档案类型转为案例1/2，HQ 档案不参与归因
func (r *AttributionResolver) resolveByProfile(profile *models.AffiliateProfile) (Attribution, bool, error) {
	if profile == nil || profile.Status != constants.AffiliateProfileStatusActive {
		return Attribution{}, false, nil
	}
	switch profile.ProfileType {
	case constants.AffiliateProfileTypeSalesAgent:
		return r.resolveAgent(profile.ID)
	case constants.AffiliateProfileTypeBranchManager:
		return r.resolveManager(profile.ID)
	default:
		return Attribution{}, false, nil
	}
}

// resolveMallUser 案例4：商城用户，数字ID直查，否则按手机号回退查 partner 角色
func (r *AttributionResolver) resolveMallUser(userKey string) (Attribution, bool, error) {
	key := strings.TrimSpace(userKey)
	if key == "" {
		return Attribution{}, false, nil
	}

	var user *models.MallUser
	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		found, err := r.mallUserRepo.GetByID(uint(id))
		if err != nil {
			return Attribution{}, false, err
		}
		user = found
	} else if phone := normalizePhone(key, r.phoneRegion); phone != "" {
		found, err := r.mallUserRepo.GetPartnerByPhone(phone)
		if err != nil {
			return Attribution{}, false, err
		}
		user = found
	}

	if user == nil || user.AffiliateProfileID == nil {
		return Attribution{}, false, nil
	}
	profile, err := r.profileRepo.GetByID(*user.AffiliateProfileID)
	if err != nil {
		return Attribution{}, false, err
	}
	return r.resolveByProfile(profile)
}

// resolveLead 案例5：逐字复制潜客归属，潜客自身归属即权威结果
func (r *AttributionResolver) resolveLead(leadID uint) (Attribution, bool, error) {
	lead, err := r.leadRepo.GetByID(leadID)
	if err != nil {
		return Attribution{}, false, err
	}
	if lead == nil {
		return Attribution{}, false, nil
	}
	if lead.ManagerProfileID == nil && lead.AgentProfileID == nil {
		return Attribution{}, false, nil
	}
	return Attribution{
		ManagerProfileID: lead.ManagerProfileID,
		AgentProfileID:   lead.AgentProfileID,
	}, true, nil
}
