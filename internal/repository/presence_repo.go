package repository

import (
	"CheckinVoyage/internal/model"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type PresenceRepo interface {
	Upsert(ctx context.Context, p *model.Presence) error
	SweepStale(ctx context.Context, before time.Time) (int64, error)
}

type presenceRepoImpl struct {
	db *gorm.DB
}

func NewPresenceRepo(db *gorm.DB) PresenceRepo {
	return &presenceRepoImpl{db: db}
}

// Upsert 按 (sender_id, context_id) 覆盖输入状态
func (s *presenceRepoImpl) Upsert(ctx context.Context, p *model.Presence) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Presence
		q := tx.Where("sender_id = ?", p.SenderID)
		err := whereContext(q, p.ContextID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(p).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&model.Presence{}).Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"receiver_id": p.ReceiverID,
				"is_typing":   p.IsTyping,
				"updated_at":  p.UpdatedAt,
			}).Error
	})
	return errors.Wrap(err, "upsert presence")
}

// SweepStale 将超过窗口仍标记为输入中的行落回 Idle
func (s *presenceRepoImpl) SweepStale(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Presence{}).
		Where("is_typing = 1 AND updated_at < ?", before).
		Update("is_typing", false)
	return res.RowsAffected, errors.Wrap(res.Error, "sweep stale presence")
}
