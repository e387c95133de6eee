package model

import "time"

// ReadReceipt 会话粒度的已读进度，每 (user_id, context_id) 一行。
// 首次已读或首次发送时创建，此后仅 Upsert，从不删除。
type ReadReceipt struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64     `gorm:"not null;uniqueIndex:idx_user_context" json:"userId"`
	ContextID *uint64    `gorm:"uniqueIndex:idx_user_context" json:"contextId"`
	LastSeen  *time.Time `json:"lastSeen"`
	LastSent  *time.Time `json:"lastSent"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (ReadReceipt) TableName() string { return "read_receipts" }
