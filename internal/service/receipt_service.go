package service

import (
	"CheckinVoyage/internal/model"
	"CheckinVoyage/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"gorm.io/gorm"
)

// ReceiptService 会话粒度的已读进度。没有逐条回执，
// Seen 角标只对会话中最近一条外发消息有意义。
type ReceiptService interface {
	MarkConversationRead(ctx context.Context, selfID, counterpartID uint64, contextID *uint64) ([]uint64, error)
	CounterpartReceipt(ctx context.Context, counterpartID uint64, contextID *uint64) (*model.ReadReceipt, error)
	RecordSent(ctx context.Context, selfID uint64, contextID *uint64, at time.Time)
}

type receiptServiceImpl struct {
	messageRepo repository.MessageRepo
	receiptRepo repository.ReceiptRepo
}

func NewReceiptService(messageRepo repository.MessageRepo, receiptRepo repository.ReceiptRepo) ReceiptService {
	return &receiptServiceImpl{
		messageRepo: messageRepo,
		receiptRepo: receiptRepo,
	}
}

// MarkConversationRead 打开会话时整体置已读并推进 last_seen。
// 返回被置位的消息 id，供视图原地翻转本地副本，避免整页重拉。
func (s *receiptServiceImpl) MarkConversationRead(ctx context.Context, selfID, counterpartID uint64, contextID *uint64) ([]uint64, error) {
	if selfID == 0 {
		return nil, UnauthorizedError
	}

	ids, err := s.messageRepo.UnreadIDs(ctx, selfID, counterpartID, contextID)
	if err != nil {
		return nil, ErrStoreUnavailable
	}

	if err := s.messageRepo.MarkRead(ctx, ids); err != nil {
		return nil, ErrStoreUnavailable
	}

	if err := s.receiptRepo.UpsertLastSeen(ctx, selfID, contextID, time.Now()); err != nil {
		return nil, ErrStoreUnavailable
	}

	return ids, nil
}

// CounterpartReceipt 对方尚无回执行时返回 nil（视为从未查看）
func (s *receiptServiceImpl) CounterpartReceipt(ctx context.Context, counterpartID uint64, contextID *uint64) (*model.ReadReceipt, error) {
	receipt, err := s.receiptRepo.Get(ctx, counterpartID, contextID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	return receipt, nil
}

// RecordSent 发送侧推进 last_sent。失败只记日志，不阻断发送链路。
func (s *receiptServiceImpl) RecordSent(ctx context.Context, selfID uint64, contextID *uint64, at time.Time) {
	if err := s.receiptRepo.UpsertLastSent(ctx, selfID, contextID, at); err != nil {
		log.Warn("推进 last_sent 失败", "userID", selfID, "err", err)
	}
}

// IsSeenByCounterpart 外发消息是否已被对方查看：last_seen >= created_at
func IsSeenByCounterpart(msg *model.Message, receipt *model.ReadReceipt) bool {
	if receipt == nil || receipt.LastSeen == nil {
		return false
	}
	return !receipt.LastSeen.Before(msg.CreatedAt)
}
