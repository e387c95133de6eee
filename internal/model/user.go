package model

import "time"

type User struct {
	ID          uint64 `gorm:"primaryKey"`
	DisplayName string `gorm:"type:varchar(100);not null"`
	AvatarURL   string `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string {
	return "users"
}
