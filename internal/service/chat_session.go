package service

import (
	"CheckinVoyage/internal/api/dto"
	"context"
	log "log/slog"
	"sort"
	"sync"
	"time"
)

// SessionEvent 推送给视图的增量事件
type SessionEvent struct {
	Kind     string // message | presence
	Message  *dto.MessageDTO
	IsTyping bool
}

// ChatSession 单个打开视图的本地投影，由创建它的视图独占持有。
// 消息集只经 MessageService 变更，投影仅作呈现：
// 按 id 去重（先到的副本保留服务端字段），渲染时按 created_at 稳定排序。
type ChatSession struct {
	selfID    uint64
	contextID *uint64

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	closed      bool
	items       map[uint64]*dto.MessageDTO
	pending     map[uint64]*dto.MessageDTO // 乐观副本，尚未拿到服务端 id
	nextPending uint64
	typing      bool
	typingTimer *time.Timer
	window      time.Duration
	cancelFeeds []func()
	events      chan *SessionEvent
}

func newChatSession(parent context.Context, selfID uint64, contextID *uint64, window time.Duration, buffer int) *ChatSession {
	ctx, cancel := context.WithCancel(parent)
	if buffer <= 0 {
		buffer = 64
	}
	return &ChatSession{
		selfID:    selfID,
		contextID: contextID,
		ctx:       ctx,
		cancel:    cancel,
		items:     make(map[uint64]*dto.MessageDTO),
		pending:   make(map[uint64]*dto.MessageDTO),
		window:    window,
		events:    make(chan *SessionEvent, buffer),
	}
}

// Events 视图消费的事件通道，Close 后关闭
func (s *ChatSession) Events() <-chan *SessionEvent {
	return s.events
}

// Append 去重后并入投影。同 id 已存在时丢弃后到副本。
func (s *ChatSession) Append(msg *dto.MessageDTO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.items[msg.ID]; ok {
		return
	}
	s.items[msg.ID] = msg
	s.emitLocked(&SessionEvent{Kind: "message", Message: msg})
}

// AppendOptimistic 发送前先行呈现的本地副本，返回用于确认或回滚的凭据
func (s *ChatSession) AppendOptimistic(msg *dto.MessageDTO) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.nextPending++
	token := s.nextPending
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.IsRead = true // 发送方始终以已读视角看自己的消息
	s.pending[token] = msg
	return token
}

// ConfirmOptimistic 落库成功后以服务端副本顶替乐观副本。
// 若远端事件已先行送达同一 id，保留先到副本。
func (s *ChatSession) ConfirmOptimistic(token uint64, msg *dto.MessageDTO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, token)
	if s.closed {
		return
	}
	if _, ok := s.items[msg.ID]; ok {
		return
	}
	msg.IsRead = true
	s.items[msg.ID] = msg
}

// Retract 发送失败时回滚乐观副本
func (s *ChatSession) Retract(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, token)
}

// MarkLocalRead 原地翻转来自对手方的本地副本，免整页重拉
func (s *ChatSession) MarkLocalRead(counterpartID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.items {
		if m.ReceiverID == s.selfID && m.SenderID == counterpartID {
			m.IsRead = true
		}
	}
}

// Snapshot 渲染用快照：按 created_at 升序，同刻按 id。
// 事件富化完成顺序与到达顺序无关，排序只在此处保证。
func (s *ChatSession) Snapshot() []*dto.MessageDTO {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]*dto.MessageDTO, 0, len(s.items)+len(s.pending))
	for _, m := range s.items {
		res = append(res, m)
	}
	for _, m := range s.pending {
		res = append(res, m)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}

// SetTyping 接收端维护对方输入状态。true 时（重）启动本地过期窗口，
// 发送端的显式 false 与本地超时都收敛到 Idle。
func (s *ChatSession) SetTyping(isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}

	changed := s.typing != isTyping
	s.typing = isTyping
	if isTyping {
		s.typingTimer = time.AfterFunc(s.window, s.expireTyping)
	}

	if changed {
		s.emitLocked(&SessionEvent{Kind: "presence", IsTyping: isTyping})
	}
}

// Typing 当前对方是否输入中
func (s *ChatSession) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

func (s *ChatSession) expireTyping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.typing {
		return
	}
	s.typing = false
	s.typingTimer = nil
	s.emitLocked(&SessionEvent{Kind: "presence", IsTyping: false})
}

// emitLocked 非阻塞投递，调用方必须持有 s.mu
func (s *ChatSession) emitLocked(ev *SessionEvent) {
	select {
	case s.events <- ev:
	default:
		// 视图消费落后时丢增量，Snapshot 仍是完整口径
		log.Warn("会话事件通道已满，丢弃", "selfID", s.selfID)
	}
}

// Close 取消订阅与在途富化，之后任何投影写入都是空操作。
// 切换房源时必须先 Close 旧会话再订阅新会话。
func (s *ChatSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	cancels := s.cancelFeeds
	s.cancelFeeds = nil
	close(s.events)
	s.mu.Unlock()

	s.cancel()
	for _, c := range cancels {
		c()
	}
}
