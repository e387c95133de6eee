package model

import "time"

// Message 消息主表。写入后除 is_read 外不可变，从不删除。
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   uint64    `gorm:"not null;index" json:"senderId"`
	ReceiverID uint64    `gorm:"not null;index" json:"receiverId"`
	ContextID  *uint64   `gorm:"index" json:"contextId"` // 关联的房源 ID，为空表示站内私信
	Subject    string    `gorm:"type:varchar(255)" json:"subject"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"` // 服务端时钟
	IsRead     bool      `gorm:"not null;default:0" json:"isRead"`
}

func (Message) TableName() string { return "messages" }
