package admin

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

// respondServiceError 将服务层哨兵错误映射为业务状态码
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrProfileType),
		errors.Is(err, service.ErrProfileInactive),
		errors.Is(err, service.ErrInvalidPassword):
		respondError(c, response.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrAlreadyReversed):
		respondError(c, response.CodeConflict, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, response.CodeUnauthorized, err.Error(), nil)
	default:
		respondError(c, response.CodeInternal, "内部错误", err)
	}
}
