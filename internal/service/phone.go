package service

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// normalizePhone 将输入手机号归一化为 E.164 格式
// 解析失败或号码无效时返回空串，由调用方按未命中处理
func normalizePhone(raw, defaultRegion string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = "KR"
	}
	parsed, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
