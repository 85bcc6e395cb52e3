package queue

import (
	"encoding/json"

	"github.com/cruisemall-server/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskLeadMarkPurchased 潜客成交标记任务
	TaskLeadMarkPurchased = constants.TaskLeadMarkPurchased
	// TaskSettlementRun 结算批次执行任务
	TaskSettlementRun = constants.TaskSettlementRun
)

// LeadMarkPurchasedPayload 潜客成交标记任务载荷
type LeadMarkPurchasedPayload struct {
	LeadID uint `json:"lead_id"`
	SaleID uint `json:"sale_id"`
}

// SettlementRunPayload 结算执行任务载荷
type SettlementRunPayload struct {
	OperatorID uint `json:"operator_id,omitempty"`
}

// NewLeadMarkPurchasedTask 创建潜客成交标记任务
func NewLeadMarkPurchasedTask(payload LeadMarkPurchasedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadMarkPurchased, body), nil
}

// NewSettlementRunTask 创建结算执行任务
func NewSettlementRunTask(payload SettlementRunPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementRun, body), nil
}
