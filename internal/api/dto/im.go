package dto

import "time"

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	ReceiverID uint64  `json:"receiver_id" binding:"required"`
	ContextID  *uint64 `json:"context_id"` // 房源 ID，为空表示站内私信
	Subject    string  `json:"subject" binding:"max=255"`
	Content    string  `json:"content" binding:"required"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID         uint64    `json:"id"`
	SenderID   uint64    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	ReceiverID uint64    `json:"receiver_id"`
	ContextID  *uint64   `json:"context_id"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

// ConversationDTO 会话列表项响应
type ConversationDTO struct {
	CounterpartID   uint64      `json:"counterpart_id"`
	CounterpartName string      `json:"counterpart_name"`
	ContextID       *uint64     `json:"context_id"`
	LatestMessage   *MessageDTO `json:"latest_message"`
	UnreadCount     int         `json:"unread_count"`
	Timestamp       time.Time   `json:"timestamp"`
	LatestSeen      bool        `json:"latest_seen"` // 最近一条外发消息是否已被对方查看
}

// MarkReadReq 标记会话已读请求
type MarkReadReq struct {
	CounterpartID uint64  `json:"counterpart_id" binding:"required"`
	ContextID     *uint64 `json:"context_id"`
}

// TypingReq 输入状态上报
type TypingReq struct {
	ReceiverID uint64  `json:"receiver_id" binding:"required"`
	ContextID  *uint64 `json:"context_id"`
	IsTyping   *bool   `json:"is_typing" binding:"required"`
}

// SessionFrame WebSocket 推送帧
type SessionFrame struct {
	Kind     string      `json:"kind"` // message | presence
	Message  *MessageDTO `json:"message,omitempty"`
	IsTyping bool        `json:"is_typing,omitempty"`
}
