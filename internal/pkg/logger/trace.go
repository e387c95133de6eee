package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey 请求链路标识在 Context 中的 Key
const TraceIDKey = "trace_id"

// UserIDKey 已认证用户在 Context 中的 Key
const UserIDKey = "user_id"

// ContextHandler 从 ctx 提取链路与身份字段，附加到每条日志
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if ctx != nil {
		if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
			r.AddAttrs(log.String(TraceIDKey, traceID))
		}
		if userID, ok := ctx.Value(UserIDKey).(uint64); ok {
			r.AddAttrs(log.Uint64(UserIDKey, userID))
		}
	}
	return h.Handler.Handle(ctx, r)
}
