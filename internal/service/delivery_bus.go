package service

import (
	"CheckinVoyage/internal/model"
	"CheckinVoyage/internal/pkg/consts"
	"CheckinVoyage/internal/pkg/feed"
	"context"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

// DeliveryBus 把 context 频道上的行变更事件富化后送进打开的视图。
// 每个视图同一时刻至多持有一个会话，切换 context 先 Close 再 Subscribe。
type DeliveryBus interface {
	Subscribe(ctx context.Context, selfID uint64, contextID *uint64) *ChatSession
}

type deliveryBusImpl struct {
	changeFeed   feed.ChangeFeed
	profiles     ProfileService
	typingWindow time.Duration
	bufferSize   int
}

func NewDeliveryBus(changeFeed feed.ChangeFeed, profiles ProfileService, typingWindow time.Duration, bufferSize int) DeliveryBus {
	if typingWindow <= 0 {
		typingWindow = consts.TypingWindow
	}
	return &deliveryBusImpl{
		changeFeed:   changeFeed,
		profiles:     profiles,
		typingWindow: typingWindow,
		bufferSize:   bufferSize,
	}
}

// Subscribe 建立一个视图会话：订阅消息与输入状态两个频道，
// 单 goroutine 串行消费并富化，会话 Close 即取消订阅与在途富化。
func (s *deliveryBusImpl) Subscribe(ctx context.Context, selfID uint64, contextID *uint64) *ChatSession {
	session := newChatSession(ctx, selfID, contextID, s.typingWindow, s.bufferSize)
	key := ContextKey(contextID)

	msgCh, cancelMsg := s.changeFeed.Subscribe(session.ctx, consts.TableMessages, key)
	presCh, cancelPres := s.changeFeed.Subscribe(session.ctx, consts.TablePresence, key)
	session.cancelFeeds = []func(){cancelMsg, cancelPres}

	go s.pump(session, msgCh, presCh)
	return session
}

func (s *deliveryBusImpl) pump(session *ChatSession, msgCh, presCh <-chan *feed.Event) {
	for msgCh != nil || presCh != nil {
		select {
		case <-session.ctx.Done():
			return
		case ev, ok := <-msgCh:
			if !ok {
				msgCh = nil
				continue
			}
			s.handleMessage(session, ev)
		case ev, ok := <-presCh:
			if !ok {
				presCh = nil
				continue
			}
			s.handlePresence(session, ev)
		}
	}
}

// handleMessage 相关性过滤 → 昵称富化 → 并入投影。
// 富化挂在会话自身的 ctx 上，视图关闭后在途查询随之作废，不会写入已死视图。
func (s *deliveryBusImpl) handleMessage(session *ChatSession, ev *feed.Event) {
	var msg model.Message
	if err := json.Unmarshal(ev.Payload, &msg); err != nil {
		log.Warn("消息事件解析失败", "err", err)
		return
	}

	if msg.SenderID != session.selfID && msg.ReceiverID != session.selfID {
		return
	}

	// 自己发出的消息在自己的视图里始终已读
	if msg.SenderID == session.selfID {
		msg.IsRead = true
	}

	name := s.profiles.DisplayName(session.ctx, msg.SenderID)
	if session.ctx.Err() != nil {
		return
	}

	session.Append(toMessageDTO(&msg, name))
}

func (s *deliveryBusImpl) handlePresence(session *ChatSession, ev *feed.Event) {
	var p model.Presence
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		log.Warn("输入状态事件解析失败", "err", err)
		return
	}

	// 只认发给自己的状态
	if p.ReceiverID != session.selfID || p.SenderID == session.selfID {
		return
	}
	session.SetTyping(p.IsTyping)
}
