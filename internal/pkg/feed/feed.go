package feed

import "context"

type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
)

// Event 行变更事件，Payload 为行数据 JSON
type Event struct {
	Op      Operation `json:"op"`
	Table   string    `json:"table"`
	Payload []byte    `json:"payload"`
}

// ChangeFeed 行变更广播总线。Subscribe 返回的取消函数负责
// 注销订阅并关闭事件通道，调用方不得再读取。
type ChangeFeed interface {
	Publish(ctx context.Context, contextKey string, event *Event) error
	Subscribe(ctx context.Context, table string, contextKey string) (<-chan *Event, func())
}
