package public

import (
	"errors"

	handlershared "github.com/cruisemall-server/internal/http/handlers/shared"
	"github.com/cruisemall-server/internal/http/response"
	"github.com/cruisemall-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// respondWebhookError 商城回调的错误映射：校验类错误返回 4xx，其余一律 5xx，
// 让网关按 5xx 重试、按 4xx 丢弃。
func respondWebhookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	default:
		respondError(c, response.CodeInternal, "内部错误", err)
	}
}
