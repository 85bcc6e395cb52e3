package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cruisemall-server/internal/constants"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/queue"
	"github.com/cruisemall-server/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// saleStatusTransitions 销售状态流转表
// confirmed 由本引擎写入，后续状态仅经管理端/结算动作推进
var saleStatusTransitions = map[string][]string{
	constants.SaleStatusConfirmed: {
		constants.SaleStatusPaid,
		constants.SaleStatusRefunded,
		constants.SaleStatusCanceled,
	},
	constants.SaleStatusPaid: {
		constants.SaleStatusPayoutScheduled,
		constants.SaleStatusRefunded,
	},
	constants.SaleStatusPayoutScheduled: {
		constants.SaleStatusRefunded,
	},
}

func canTransitionSale(from, to string) bool {
	for _, allowed := range saleStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SaleService 销售落库闸口
// 归因解析 → 佣金计算 → 台账生成 → 单事务写入销售与台账批次；
// 外部订单号为幂等键，重投返回既有记录；潜客成交标记为提交后副作用
type SaleService struct {
	saleRepo    repository.SaleRepository
	ledgerRepo  repository.LedgerRepository
	leadService *LeadService
	tierService *TierService
	resolver    *AttributionResolver
	queueClient *queue.Client
}

// NewSaleService 创建销售落库服务
func NewSaleService(
	saleRepo repository.SaleRepository,
	ledgerRepo repository.LedgerRepository,
	leadService *LeadService,
	tierService *TierService,
	resolver *AttributionResolver,
	queueClient *queue.Client,
) *SaleService {
	return &SaleService{
		saleRepo:    saleRepo,
		ledgerRepo:  ledgerRepo,
		leadService: leadService,
		tierService: tierService,
		resolver:    resolver,
		queueClient: queueClient,
	}
}

// RecordSaleInput 销售事件输入（管理端录入与商城回调映射到同一结构）
type RecordSaleInput struct {
	ExternalOrderCode string
	LeadID            uint
	ProductCode       string
	ManagerID         uint
	AgentID           uint
	AffiliateCode     string
	MallUserKey       string
	CabinType         string
	Currency          string
	SaleAmount        decimal.Decimal
	CostAmount        decimal.Decimal
	SaleDate          *time.Time
}

// RecordSaleResult 销售落库结果
type RecordSaleResult struct {
	Sale      *models.AffiliateSale `json:"sale"`
	Breakdown Breakdown             `json:"breakdown"`
	Duplicate bool                  `json:"duplicate"`
}

// postCommitEffect 提交后副作用，独立执行，失败只记录日志
type postCommitEffect struct {
	name string
	run  func() error
}

// RecordSale 记录销售事件并生成佣金台账
func (s *SaleService) RecordSale(ctx context.Context, input RecordSaleInput) (*RecordSaleResult, error) {
	productCode := strings.TrimSpace(input.ProductCode)
	if productCode == "" {
		return nil, fmt.Errorf("%w: product_code 不能为空", ErrInvalidInput)
	}
	if input.SaleAmount.IsZero() {
		return nil, fmt.Errorf("%w: sale_amount 不能为空", ErrInvalidInput)
	}

	orderCode := strings.TrimSpace(input.ExternalOrderCode)
	if orderCode != "" {
		existing, err := s.saleRepo.GetByExternalOrderCode(orderCode)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logger.Infow("sale_duplicate_event",
				"external_order_code", orderCode,
				"sale_id", existing.ID,
			)
			return s.buildDuplicateResult(existing), nil
		}
	}

	attribution, err := s.resolver.Resolve(s.buildHints(input))
	if err != nil {
		return nil, err
	}

	tierCtx, err := s.tierService.GetTierContext(ctx, input.CabinType)
	if err != nil {
		return nil, err
	}

	breakdown := CalculateCommission(
		input.SaleAmount,
		input.CostAmount,
		attribution.ManagerProfileID,
		attribution.AgentProfileID,
		tierCtx,
	)
	entries := GenerateLedgerEntries(breakdown, attribution.ManagerProfileID, attribution.AgentProfileID)

	sale := s.buildSale(input, attribution, breakdown, orderCode, productCode)
	err = s.saleRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.saleRepo.WithTx(tx).Create(sale); err != nil {
			return err
		}
		for i := range entries {
			entries[i].SaleID = sale.ID
		}
		return s.ledgerRepo.WithTx(tx).CreateBatch(entries)
	})
	if err != nil {
		// 并发重投双双通过预检时，唯一索引兜底，按既有记录返回
		if orderCode != "" && isUniqueViolation(err) {
			existing, fetchErr := s.saleRepo.GetByExternalOrderCode(orderCode)
			if fetchErr != nil {
				return nil, fetchErr
			}
			if existing != nil {
				logger.Infow("sale_duplicate_race_resolved",
					"external_order_code", orderCode,
					"sale_id", existing.ID,
				)
				return s.buildDuplicateResult(existing), nil
			}
		}
		return nil, err
	}

	logger.Infow("sale_recorded",
		"sale_id", sale.ID,
		"external_order_code", orderCode,
		"attribution_source", attribution.Source,
		"entry_count", len(entries),
		"net_revenue", breakdown.NetRevenue.String(),
	)

	s.runPostCommitEffects(s.buildPostCommitEffects(input.LeadID, sale.ID))
	return &RecordSaleResult{Sale: sale, Breakdown: breakdown}, nil
}

// buildHints 按固定优先级组装归因提示
func (s *SaleService) buildHints(input RecordSaleInput) []AttributionHint {
	hints := make([]AttributionHint, 0, 5)
	if input.AgentID != 0 {
		hints = append(hints, ExplicitAgentHint{ProfileID: input.AgentID})
	}
	if input.ManagerID != 0 {
		hints = append(hints, ExplicitManagerHint{ProfileID: input.ManagerID})
	}
	if strings.TrimSpace(input.AffiliateCode) != "" {
		hints = append(hints, AffiliateCodeHint{Code: input.AffiliateCode})
	}
	if strings.TrimSpace(input.MallUserKey) != "" {
		hints = append(hints, MallUserHint{UserKey: input.MallUserKey})
	}
	if input.LeadID != 0 {
		hints = append(hints, LeadHint{LeadID: input.LeadID})
	}
	return hints
}

func (s *SaleService) buildSale(
	input RecordSaleInput,
	attribution Attribution,
	breakdown Breakdown,
	orderCode, productCode string,
) *models.AffiliateSale {
	saleDate := time.Now()
	if input.SaleDate != nil {
		saleDate = *input.SaleDate
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "KRW"
	}

	sale := &models.AffiliateSale{
		ProductCode:       productCode,
		CabinType:         strings.ToUpper(strings.TrimSpace(input.CabinType)),
		ManagerProfileID:  attribution.ManagerProfileID,
		AgentProfileID:    attribution.AgentProfileID,
		AttributionSource: attribution.Source,
		Currency:          currency,
		SaleAmount:        models.NewMoneyFromDecimal(input.SaleAmount),
		CostAmount:        models.NewMoneyFromDecimal(input.CostAmount),
		NetRevenue:        breakdown.NetRevenue,
		Status:            constants.SaleStatusConfirmed,
		SaleDate:          saleDate,
	}
	if orderCode != "" {
		sale.ExternalOrderCode = &orderCode
	}
	if input.LeadID != 0 {
		leadID := input.LeadID
		sale.LeadID = &leadID
	}
	return sale
}

// buildDuplicateResult 幂等命中时由既有台账条目还原佣金分解，入参新值一律丢弃
func (s *SaleService) buildDuplicateResult(sale *models.AffiliateSale) *RecordSaleResult {
	breakdown := Breakdown{NetRevenue: sale.NetRevenue}
	for _, entry := range sale.Entries {
		if entry.IsReversal {
			continue
		}
		switch entry.EntryType {
		case constants.LedgerEntryTypeBranchCommission:
			breakdown.BranchCommission = models.Money{Decimal: breakdown.BranchCommission.Decimal.Add(entry.Amount.Decimal)}
		case constants.LedgerEntryTypeSalesCommission:
			breakdown.SalesCommission = models.Money{Decimal: breakdown.SalesCommission.Decimal.Add(entry.Amount.Decimal)}
		case constants.LedgerEntryTypeOverrideCommission:
			breakdown.OverrideCommission = models.Money{Decimal: breakdown.OverrideCommission.Decimal.Add(entry.Amount.Decimal)}
		case constants.LedgerEntryTypeWithholding:
			breakdown.TotalWithholding = models.Money{Decimal: breakdown.TotalWithholding.Decimal.Sub(entry.Amount.Decimal)}
		}
	}
	return &RecordSaleResult{Sale: sale, Breakdown: breakdown, Duplicate: true}
}

func (s *SaleService) buildPostCommitEffects(leadID, saleID uint) []postCommitEffect {
	if leadID == 0 {
		return nil
	}
	return []postCommitEffect{
		{
			name: "lead_mark_purchased",
			run: func() error {
				if s.queueClient.Enabled() {
					return s.queueClient.EnqueueLeadMarkPurchased(queue.LeadMarkPurchasedPayload{
						LeadID: leadID,
						SaleID: saleID,
					})
				}
				return s.leadService.MarkPurchased(leadID, saleID)
			},
		},
	}
}

// runPostCommitEffects 执行提交后副作用，失败记录日志不回滚财务写入
func (s *SaleService) runPostCommitEffects(effects []postCommitEffect) {
	for _, effect := range effects {
		if err := effect.run(); err != nil {
			logger.Errorw("post_commit_effect_failed",
				"effect", effect.name,
				"error", err,
			)
		}
	}
}

// GetSale 获取销售详情（含台账条目）
func (s *SaleService) GetSale(id uint) (*models.AffiliateSale, error) {
	sale, err := s.saleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, ErrNotFound
	}
	return sale, nil
}

// ListSales 查询销售列表
func (s *SaleService) ListSales(filter repository.SaleListFilter) ([]models.AffiliateSale, int64, error) {
	return s.saleRepo.List(filter)
}

// ListLedgerEntries 查询台账条目列表
func (s *SaleService) ListLedgerEntries(filter repository.LedgerListFilter) ([]models.CommissionLedgerEntry, int64, error) {
	return s.ledgerRepo.List(filter)
}

// UpdateSaleStatus 管理端推进销售状态（按流转表校验）
func (s *SaleService) UpdateSaleStatus(id uint, rawStatus string) (*models.AffiliateSale, error) {
	status := strings.TrimSpace(rawStatus)
	err := s.saleRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.saleRepo.WithTx(tx)
		sale, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrNotFound
		}
		if sale.Status == status {
			return nil
		}
		if !canTransitionSale(sale.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sale.Status, status)
		}
		return repo.UpdateStatus(id, status)
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(id)
}

// ReverseSale 冲正销售：追加反向台账条目并将销售置为 refunded
// 原条目不可变更，冲正只做追加；重复冲正被拒绝
func (s *SaleService) ReverseSale(id uint) (*models.AffiliateSale, error) {
	err := s.saleRepo.Transaction(func(tx *gorm.DB) error {
		saleRepo := s.saleRepo.WithTx(tx)
		ledgerRepo := s.ledgerRepo.WithTx(tx)

		sale, err := saleRepo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if sale == nil {
			return ErrNotFound
		}
		if !canTransitionSale(sale.Status, constants.SaleStatusRefunded) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sale.Status, constants.SaleStatusRefunded)
		}

		entries, err := ledgerRepo.ListBySaleForUpdate(id)
		if err != nil {
			return err
		}
		reversals := make([]models.CommissionLedgerEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.IsReversal {
				return ErrAlreadyReversed
			}
			reversals = append(reversals, models.CommissionLedgerEntry{
				SaleID:            entry.SaleID,
				ProfileID:         entry.ProfileID,
				EntryType:         entry.EntryType,
				Amount:            models.Money{Decimal: entry.Amount.Decimal.Neg()},
				WithholdingAmount: models.Money{Decimal: entry.WithholdingAmount.Decimal.Neg()},
				IsReversal:        true,
			})
		}
		if err := ledgerRepo.CreateBatch(reversals); err != nil {
			return err
		}
		return saleRepo.UpdateStatus(id, constants.SaleStatusRefunded)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("sale_reversed", "sale_id", id)
	return s.GetSale(id)
}

// isUniqueViolation 判断是否唯一约束冲突（sqlite/postgres 文案兼容）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
