package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/cruisemall-server/internal/http/handlers/shared"
	"github.com/cruisemall-server/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id")
}

// parseIDParam 解析路径中的数字 ID
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		respondError(c, response.CodeBadRequest, "路径参数非法", err)
		return 0, false
	}
	return uint(parsed), true
}
