package admin

import (
	"strconv"

	"github.com/cruisemall-server/internal/http/response"
	"github.com/cruisemall-server/internal/repository"

	"github.com/gin-gonic/gin"
)

// RunSettlement 手动触发一次结算批次
func (h *Handler) RunSettlement(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	batch, err := h.SettlementService.RunSettlement(&adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "结算执行失败", err)
		return
	}
	if batch == nil {
		response.SuccessWithMsg(c, "无待结算条目", nil)
		return
	}
	response.Success(c, batch)
}

// ListSettlementBatches 结算批次列表
func (h *Handler) ListSettlementBatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数非法", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数非法", err)
		return
	}

	batches, total, err := h.SettlementService.ListBatches(repository.SettlementBatchListFilter{
		Page:        page,
		PageSize:    pageSize,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "结算批次查询失败", err)
		return
	}
	response.SuccessWithPage(c, batches, buildPagination(page, pageSize, total))
}

// GetSettlementBatch 结算批次详情
func (h *Handler) GetSettlementBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.SettlementService.GetBatch(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, batch)
}

// ListSettlementBatchEntries 批次内台账条目
func (h *Handler) ListSettlementBatchEntries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	entries, total, err := h.SettlementService.ListBatchEntries(id, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "批次条目查询失败", err)
		return
	}
	response.SuccessWithPage(c, entries, buildPagination(page, pageSize, total))
}
