package service

import (
	"time"

	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/models"
	"github.com/cruisemall-server/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementService 结算服务
// 只翻转台账条目的 is_settled 并记录批次，从不创建或修改金额
type SettlementService struct {
	settlementRepo repository.SettlementRepository
	ledgerRepo     repository.LedgerRepository
	batchSize      int
	holdDays       int
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	settlementRepo repository.SettlementRepository,
	ledgerRepo repository.LedgerRepository,
	batchSize, holdDays int,
) *SettlementService {
	if batchSize <= 0 {
		batchSize = 500
	}
	if holdDays < 0 {
		holdDays = 0
	}
	return &SettlementService{
		settlementRepo: settlementRepo,
		ledgerRepo:     ledgerRepo,
		batchSize:      batchSize,
		holdDays:       holdDays,
	}
}

// RunSettlement 执行一次结算批次
// 锁定冻结期之前的未结算条目，同事务写入批次行并翻转 is_settled；
// 无待结算条目时不产生批次行，返回 nil
func (s *SettlementService) RunSettlement(operatorID *uint) (*models.SettlementBatch, error) {
	cutoff := time.Now().AddDate(0, 0, -s.holdDays)
	var batch *models.SettlementBatch

	err := s.settlementRepo.Transaction(func(tx *gorm.DB) error {
		ledgerRepo := s.ledgerRepo.WithTx(tx)
		entries, err := ledgerRepo.ListUnsettledForUpdate(cutoff, s.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		total := decimal.Zero
		ids := make([]uint, 0, len(entries))
		for _, entry := range entries {
			ids = append(ids, entry.ID)
			total = total.Add(entry.Amount.Decimal)
		}

		batch = &models.SettlementBatch{
			OperatorID:  operatorID,
			EntryCount:  int64(len(entries)),
			TotalAmount: models.NewMoneyFromDecimal(total),
			CutoffAt:    cutoff,
		}
		if err := s.settlementRepo.WithTx(tx).Create(batch); err != nil {
			return err
		}

		settledAt := time.Now()
		affected, err := ledgerRepo.MarkSettled(ids, batch.ID, settledAt)
		if err != nil {
			return err
		}
		if affected != int64(len(ids)) {
			logger.Warnw("settlement_partial_mark",
				"batch_id", batch.ID,
				"expected", len(ids),
				"affected", affected,
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if batch == nil {
		logger.Infow("settlement_no_due_entries", "cutoff", cutoff)
		return nil, nil
	}
	logger.Infow("settlement_batch_completed",
		"batch_id", batch.ID,
		"entry_count", batch.EntryCount,
		"total_amount", batch.TotalAmount.String(),
	)
	return batch, nil
}

// GetBatch 获取结算批次详情
func (s *SettlementService) GetBatch(id uint) (*models.SettlementBatch, error) {
	batch, err := s.settlementRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrNotFound
	}
	return batch, nil
}

// ListBatches 查询结算批次列表
func (s *SettlementService) ListBatches(filter repository.SettlementBatchListFilter) ([]models.SettlementBatch, int64, error) {
	return s.settlementRepo.List(filter)
}

// ListBatchEntries 查询批次内的台账条目
func (s *SettlementService) ListBatchEntries(batchID uint, page, pageSize int) ([]models.CommissionLedgerEntry, int64, error) {
	return s.ledgerRepo.List(repository.LedgerListFilter{
		Page:              page,
		PageSize:          pageSize,
		SettlementBatchID: batchID,
	})
}
