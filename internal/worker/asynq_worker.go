package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/provider"
	"github.com/cruisemall-server/internal/queue"
	"github.com/cruisemall-server/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLeadMarkPurchased, c.handleLeadMarkPurchased)
	mux.HandleFunc(queue.TaskSettlementRun, c.handleSettlementRun)
}

func (c *Consumer) handleLeadMarkPurchased(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_lead_mark_purchased_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LeadMarkPurchasedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_lead_mark_purchased_unmarshal_failed", "error", err)
		return err
	}
	if payload.LeadID == 0 {
		logger.Debugw("worker_lead_mark_purchased_skip_invalid_payload", "lead_id", payload.LeadID)
		return nil
	}
	if c.LeadService == nil {
		logger.Warnw("worker_lead_mark_purchased_skip_service_nil", "lead_id", payload.LeadID)
		return nil
	}
	if err := c.LeadService.MarkPurchased(payload.LeadID, payload.SaleID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			logger.Debugw("worker_lead_mark_purchased_skip_not_found", "lead_id", payload.LeadID)
			return nil
		default:
			logger.Warnw("worker_lead_mark_purchased_failed",
				"lead_id", payload.LeadID,
				"sale_id", payload.SaleID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleSettlementRun(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_run_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_run_unmarshal_failed", "error", err)
		return err
	}
	if c.SettlementService == nil {
		logger.Warnw("worker_settlement_run_skip_service_nil")
		return nil
	}
	var operatorID *uint
	if payload.OperatorID != 0 {
		operatorID = &payload.OperatorID
	}
	batch, err := c.SettlementService.RunSettlement(operatorID)
	if err != nil {
		logger.Warnw("worker_settlement_run_failed", "error", err)
		return err
	}
	if batch == nil {
		logger.Debugw("worker_settlement_run_no_due_entries")
		return nil
	}
	logger.Infow("worker_settlement_run_done",
		"batch_id", batch.ID,
		"entry_count", batch.EntryCount,
		"total_amount", batch.TotalAmount,
	)
	return nil
}
