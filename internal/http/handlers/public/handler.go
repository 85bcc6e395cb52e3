package public

import "github.com/cruisemall-server/internal/provider"

// Handler 公开接口处理器入口
// 说明：该处理器仅用于商城回调与落地页潜客登记等无鉴权 API。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
