package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cruisemall-server/internal/config"
	"github.com/cruisemall-server/internal/logger"
	"github.com/cruisemall-server/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	settlementScanInterval = time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.SettlementService != nil {
		go s.runSettlementScanLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runSettlementScanLoop 周期扫描到期台账条目并结算。
// 与管理端手工触发共用同一结算入口，批次内幂等。
func (s *Service) runSettlementScanLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.SettlementService == nil {
		return
	}
	runOnce := func() {
		batch, err := s.consumer.SettlementService.RunSettlement(nil)
		if err != nil {
			logger.Warnw("worker_settlement_scan_failed", "error", err)
			return
		}
		if batch != nil {
			logger.Infow("worker_settlement_scan_settled",
				"batch_id", batch.ID,
				"entry_count", batch.EntryCount,
			)
		}
	}
	runOnce()

	ticker := time.NewTicker(settlementScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
