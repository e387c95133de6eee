package model

import "time"

// Presence 输入状态表，每 (sender_id, context_id) 一行。
// 仅作为广播的载体，接收端各自维护本地过期，历史不可查。
type Presence struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   uint64    `gorm:"not null;uniqueIndex:idx_sender_context" json:"senderId"`
	ReceiverID uint64    `gorm:"not null" json:"receiverId"`
	ContextID  *uint64   `gorm:"uniqueIndex:idx_sender_context" json:"contextId"`
	IsTyping   bool      `gorm:"not null;default:0" json:"isTyping"`
	UpdatedAt  time.Time `gorm:"index" json:"updatedAt"`
}

func (Presence) TableName() string { return "presence" }
