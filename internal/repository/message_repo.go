package repository

import (
	"CheckinVoyage/internal/model"
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MessageFilter 消息查询过滤条件
type MessageFilter struct {
	ParticipantID *uint64 // 作为发送方或接收方参与
	PeerID        *uint64 // 与 ParticipantID 构成会话对（双向）
	ContextID     *uint64 // 指定房源
	UnscopedOnly  bool    // 仅匹配 context_id IS NULL 的站内私信
	Limit         int     // >0 时只取最近的 N 条
}

type MessageRepo interface {
	Append(ctx context.Context, msg *model.Message) error
	List(ctx context.Context, filter MessageFilter) ([]*model.Message, error)
	MarkRead(ctx context.Context, ids []uint64) error
	UnreadIDs(ctx context.Context, receiverID, senderID uint64, contextID *uint64) ([]uint64, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// Append 落库并由服务端分配 id 与 created_at
func (s *messageRepoImpl) Append(ctx context.Context, msg *model.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return errors.Wrap(err, "append message")
	}
	return nil
}

// List 按过滤条件查询，按 created_at 升序（同刻按 id 保持稳定）
func (s *messageRepoImpl) List(ctx context.Context, filter MessageFilter) ([]*model.Message, error) {
	q := s.db.WithContext(ctx).Model(&model.Message{})

	if filter.ParticipantID != nil {
		if filter.PeerID != nil {
			q = q.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				*filter.ParticipantID, *filter.PeerID, *filter.PeerID, *filter.ParticipantID)
		} else {
			q = q.Where("sender_id = ? OR receiver_id = ?", *filter.ParticipantID, *filter.ParticipantID)
		}
	}

	if filter.ContextID != nil {
		q = q.Where("context_id = ?", *filter.ContextID)
	} else if filter.UnscopedOnly {
		q = q.Where("context_id IS NULL")
	}

	var msgs []*model.Message
	if filter.Limit > 0 {
		// 截最近 N 条：倒序取再翻回升序
		if err := q.Order("created_at DESC, id DESC").Limit(filter.Limit).Find(&msgs).Error; err != nil {
			return nil, errors.Wrap(err, "list messages")
		}
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
		return msgs, nil
	}
	if err := q.Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	return msgs, nil
}

// MarkRead 批量置已读。重复标记不报错（0 行受影响视为成功）。
func (s *messageRepoImpl) MarkRead(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id IN ? AND is_read = 0", ids).
		Update("is_read", true).Error
	return errors.Wrap(err, "mark messages read")
}

// UnreadIDs 指定会话中发给 receiverID 的未读消息 id 集合
func (s *messageRepoImpl) UnreadIDs(ctx context.Context, receiverID, senderID uint64, contextID *uint64) ([]uint64, error) {
	q := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = 0", receiverID, senderID)
	if contextID != nil {
		q = q.Where("context_id = ?", *contextID)
	} else {
		q = q.Where("context_id IS NULL")
	}

	var ids []uint64
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "list unread ids")
	}
	return ids, nil
}
