package repository

import (
	"CheckinVoyage/internal/model"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ReceiptRepo interface {
	Get(ctx context.Context, userID uint64, contextID *uint64) (*model.ReadReceipt, error)
	UpsertLastSeen(ctx context.Context, userID uint64, contextID *uint64, at time.Time) error
	UpsertLastSent(ctx context.Context, userID uint64, contextID *uint64, at time.Time) error
}

type receiptRepoImpl struct {
	db *gorm.DB
}

func NewReceiptRepo(db *gorm.DB) ReceiptRepo {
	return &receiptRepoImpl{db: db}
}

// whereContext context_id 可空，需区分等值与 IS NULL
func whereContext(q *gorm.DB, contextID *uint64) *gorm.DB {
	if contextID != nil {
		return q.Where("context_id = ?", *contextID)
	}
	return q.Where("context_id IS NULL")
}

// Get 未找到时返回 gorm.ErrRecordNotFound
func (s *receiptRepoImpl) Get(ctx context.Context, userID uint64, contextID *uint64) (*model.ReadReceipt, error) {
	var receipt model.ReadReceipt
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if err := whereContext(q, contextID).First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// UpsertLastSeen 首次已读时创建行，此后仅推进 last_seen
func (s *receiptRepoImpl) UpsertLastSeen(ctx context.Context, userID uint64, contextID *uint64, at time.Time) error {
	return s.upsert(ctx, userID, contextID, map[string]interface{}{"last_seen": at}, &model.ReadReceipt{
		UserID: userID, ContextID: contextID, LastSeen: &at,
	})
}

// UpsertLastSent 首次发送时创建行，此后仅推进 last_sent
func (s *receiptRepoImpl) UpsertLastSent(ctx context.Context, userID uint64, contextID *uint64, at time.Time) error {
	return s.upsert(ctx, userID, contextID, map[string]interface{}{"last_sent": at}, &model.ReadReceipt{
		UserID: userID, ContextID: contextID, LastSent: &at,
	})
}

// upsert 手工两段式：context_id 为 NULL 时唯一索引不生效，不能依赖 ON DUPLICATE KEY
func (s *receiptRepoImpl) upsert(ctx context.Context, userID uint64, contextID *uint64, updates map[string]interface{}, fresh *model.ReadReceipt) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ReadReceipt
		q := tx.Where("user_id = ?", userID)
		err := whereContext(q, contextID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(fresh).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&model.ReadReceipt{}).Where("id = ?", existing.ID).Updates(updates).Error
	})
	return errors.Wrap(err, "upsert read receipt")
}
