package service

import "errors"

// 服务层通用哨兵错误，HTTP 层按错误类型映射响应码
var (
	ErrNotFound          = errors.New("记录不存在")
	ErrInvalidInput      = errors.New("参数无效")
	ErrInvalidTransition = errors.New("状态流转不允许")
	ErrProfileInactive   = errors.New("推广档案已停用")
	ErrProfileType       = errors.New("推广档案类型不符")
	ErrAlreadyReversed   = errors.New("销售记录已冲正")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidPassword    = errors.New("原密码不正确")
)
