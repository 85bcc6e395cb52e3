package repository

import (
	"strings"
	"time"

	"github.com/cruisemall-server/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository 佣金台账数据访问接口
type LedgerRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) LedgerRepository

	CreateBatch(entries []models.CommissionLedgerEntry) error
	ListBySale(saleID uint) ([]models.CommissionLedgerEntry, error)
	ListBySaleForUpdate(saleID uint) ([]models.CommissionLedgerEntry, error)
	List(filter LedgerListFilter) ([]models.CommissionLedgerEntry, int64, error)
	ListUnsettledForUpdate(cutoff time.Time, limit int) ([]models.CommissionLedgerEntry, error)
	MarkSettled(ids []uint, batchID uint, settledAt time.Time) (int64, error)
	SumByProfile(profileID uint) (ProfileLedgerAggregate, error)
}

// GormLedgerRepository GORM 佣金台账仓储
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建佣金台账仓储
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Transaction 执行事务
func (r *GormLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// CreateBatch 批量创建台账条目
func (r *GormLedgerRepository) CreateBatch(entries []models.CommissionLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(&entries).Error
}

// ListBySale 按销售记录查询台账条目
func (r *GormLedgerRepository) ListBySale(saleID uint) ([]models.CommissionLedgerEntry, error) {
	if saleID == 0 {
		return []models.CommissionLedgerEntry{}, nil
	}
	var rows []models.CommissionLedgerEntry
	if err := r.db.Where("sale_id = ?", saleID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBySaleForUpdate 按销售记录锁定查询台账条目
func (r *GormLedgerRepository) ListBySaleForUpdate(saleID uint) ([]models.CommissionLedgerEntry, error) {
	if saleID == 0 {
		return []models.CommissionLedgerEntry{}, nil
	}
	var rows []models.CommissionLedgerEntry
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sale_id = ?", saleID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// List 查询台账条目列表
func (r *GormLedgerRepository) List(filter LedgerListFilter) ([]models.CommissionLedgerEntry, int64, error) {
	query := r.db.Model(&models.CommissionLedgerEntry{}).Preload("Profile")
	if filter.SaleID != 0 {
		query = query.Where("commission_ledger_entries.sale_id = ?", filter.SaleID)
	}
	if filter.ProfileID != 0 {
		query = query.Where("commission_ledger_entries.profile_id = ?", filter.ProfileID)
	}
	if entryType := strings.TrimSpace(filter.EntryType); entryType != "" {
		query = query.Where("commission_ledger_entries.entry_type = ?", entryType)
	}
	if filter.SettlementBatchID != 0 {
		query = query.Where("commission_ledger_entries.settlement_batch_id = ?", filter.SettlementBatchID)
	}
	if filter.Settled != nil {
		query = query.Where("commission_ledger_entries.is_settled = ?", *filter.Settled)
	}
	if filter.Reversal != nil {
		query = query.Where("commission_ledger_entries.is_reversal = ?", *filter.Reversal)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("commission_ledger_entries.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("commission_ledger_entries.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.CommissionLedgerEntry
	if err := query.Order("commission_ledger_entries.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListUnsettledForUpdate 锁定查询截止时间之前的未结算条目
func (r *GormLedgerRepository) ListUnsettledForUpdate(cutoff time.Time, limit int) ([]models.CommissionLedgerEntry, error) {
	query := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_settled = ? AND created_at <= ?", false, cutoff).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.CommissionLedgerEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkSettled 批量标记条目已结算
func (r *GormLedgerRepository) MarkSettled(ids []uint, batchID uint, settledAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.CommissionLedgerEntry{}).
		Where("id IN ? AND is_settled = ?", ids, false).
		Updates(map[string]interface{}{
			"is_settled":          true,
			"settlement_batch_id": batchID,
			"settled_at":          settledAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SumByProfile 汇总指定档案的台账金额
func (r *GormLedgerRepository) SumByProfile(profileID uint) (ProfileLedgerAggregate, error) {
	aggregate := ProfileLedgerAggregate{
		GrossAmount:       decimal.Zero,
		WithholdingAmount: decimal.Zero,
		UnsettledAmount:   decimal.Zero,
	}
	if profileID == 0 {
		return aggregate, nil
	}

	var row struct {
		EntryCount        int64           `gorm:"column:entry_count"`
		GrossAmount       decimal.Decimal `gorm:"column:gross_amount"`
		WithholdingAmount decimal.Decimal `gorm:"column:withholding_amount"`
	}
	err := r.db.Model(&models.CommissionLedgerEntry{}).
		Select("COUNT(*) AS entry_count, COALESCE(SUM(amount), 0) AS gross_amount, COALESCE(SUM(withholding_amount), 0) AS withholding_amount").
		Where("profile_id = ?", profileID).
		Scan(&row).Error
	if err != nil {
		return aggregate, err
	}
	aggregate.EntryCount = row.EntryCount
	aggregate.GrossAmount = row.GrossAmount.Round(2)
	aggregate.WithholdingAmount = row.WithholdingAmount.Round(2)

	var unsettled struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	err = r.db.Model(&models.CommissionLedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("profile_id = ? AND is_settled = ?", profileID, false).
		Scan(&unsettled).Error
	if err != nil {
		return aggregate, err
	}
	aggregate.UnsettledAmount = unsettled.Total.Round(2)
	return aggregate, nil
}
