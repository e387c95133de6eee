package consts

import "time"

const (
	// 正在输入状态的存活窗口，超时自动回落为 Idle
	TypingWindow = 3 * time.Second

	// 昵称缓存过期时间
	ProfileNameTTL = 10 * time.Minute

	// 未指定 context 的消息使用的频道段
	UnscopedContextKey = "none"
)

const (
	DefaultDisplayName = "未知用户"
	DefaultHistorySize = 50
)
