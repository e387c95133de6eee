package feed

import (
	"CheckinVoyage/internal/pkg/consts"
	"CheckinVoyage/internal/pkg/redis"
	"context"
	log "log/slog"
	"sync"

	"github.com/goccy/go-json"
)

// redisFeed 基于 Redis Pub/Sub 的变更总线实现
// 频道命名：feed:<table>:<context_key>
type redisFeed struct {
	bufferSize int
}

func NewRedisFeed(bufferSize int) ChangeFeed {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &redisFeed{bufferSize: bufferSize}
}

func channelName(table, contextKey string) string {
	return consts.FeedChannelKey + table + ":" + contextKey
}

func (s *redisFeed) Publish(ctx context.Context, contextKey string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return redis.Publish(ctx, channelName(event.Table, contextKey), data)
}

// Subscribe 订阅指定表在指定 context 下的变更。
// 返回的取消函数幂等，关闭底层订阅并排空事件通道。
func (s *redisFeed) Subscribe(ctx context.Context, table string, contextKey string) (<-chan *Event, func()) {
	pubsub := redis.Subscribe(ctx, channelName(table, contextKey))
	out := make(chan *Event, s.bufferSize)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn("变更事件解析失败", "channel", msg.Channel, "err", err)
				continue
			}
			select {
			case out <- &ev:
			default:
				// 消费方落后时丢弃最新事件，视图可通过重拉历史补齐
				log.Warn("变更事件通道已满，丢弃", "channel", msg.Channel)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = pubsub.Close()
		})
	}
	return out, cancel
}
