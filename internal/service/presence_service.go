package service

import (
	"CheckinVoyage/internal/model"
	"CheckinVoyage/internal/pkg/consts"
	"CheckinVoyage/internal/pkg/feed"
	"CheckinVoyage/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
)

// PresenceService 输入状态信号。状态机 Idle → 输入中 → Idle，
// 接收端靠本地窗口超时回落，发送端的显式 false 只是提前收敛。
type PresenceService interface {
	Announce(ctx context.Context, senderID, receiverID uint64, contextID *uint64, isTyping bool) error
}

type presenceServiceImpl struct {
	presenceRepo repository.PresenceRepo
	changeFeed   feed.ChangeFeed
}

func NewPresenceService(presenceRepo repository.PresenceRepo, changeFeed feed.ChangeFeed) PresenceService {
	return &presenceServiceImpl{
		presenceRepo: presenceRepo,
		changeFeed:   changeFeed,
	}
}

// Announce 覆盖 (sender_id, context_id) 的状态行并广播到 context 频道
func (s *presenceServiceImpl) Announce(ctx context.Context, senderID, receiverID uint64, contextID *uint64, isTyping bool) error {
	if senderID == 0 {
		return UnauthorizedError
	}
	if receiverID == 0 || receiverID == senderID {
		return ErrTargetUserInvalid
	}

	p := &model.Presence{
		SenderID:   senderID,
		ReceiverID: receiverID,
		ContextID:  contextID,
		IsTyping:   isTyping,
		UpdatedAt:  time.Now(),
	}

	if err := s.presenceRepo.Upsert(ctx, p); err != nil {
		return ErrStoreUnavailable
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ev := &feed.Event{Op: feed.OpUpdate, Table: consts.TablePresence, Payload: payload}
	if err := s.changeFeed.Publish(ctx, ContextKey(contextID), ev); err != nil {
		// 广播失败不影响状态行本身，接收端窗口超时会自行收敛
		log.Warn("输入状态广播失败", "senderID", senderID, "err", err)
	}
	return nil
}
