package service

import (
	"CheckinVoyage/internal/api/dto"
	"CheckinVoyage/internal/model"
	"CheckinVoyage/internal/pkg/consts"
	"CheckinVoyage/internal/pkg/feed"
	"CheckinVoyage/internal/repository"
	"context"
	log "log/slog"

	"github.com/goccy/go-json"
)

// MessageService 消息读写入口。写失败直接上抛给用户，不做本地兜底重试。
type MessageService interface {
	SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	History(ctx context.Context, selfID, counterpartID uint64, contextID *uint64) ([]*dto.MessageDTO, error)
}

type messageServiceImpl struct {
	messageRepo repository.MessageRepo
	receipts    ReceiptService
	presence    PresenceService
	profiles    ProfileService
	changeFeed  feed.ChangeFeed
	historySize int
}

func NewMessageService(messageRepo repository.MessageRepo, receipts ReceiptService, presence PresenceService, profiles ProfileService, changeFeed feed.ChangeFeed, historySize int) MessageService {
	if historySize <= 0 {
		historySize = consts.DefaultHistorySize
	}
	return &messageServiceImpl{
		messageRepo: messageRepo,
		receipts:    receipts,
		presence:    presence,
		profiles:    profiles,
		changeFeed:  changeFeed,
		historySize: historySize,
	}
}

// SendMessage 发送消息：落库定序、推进 last_sent、清理输入状态、广播插入事件
func (s *messageServiceImpl) SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	if senderID == 0 {
		return nil, UnauthorizedError
	}
	if req.ReceiverID == 0 {
		return nil, ErrTargetUserInvalid
	}
	if req.ReceiverID == senderID {
		return nil, ErrSelfMessage
	}

	msg := &model.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		ContextID:  req.ContextID,
		Subject:    req.Subject,
		Content:    req.Content,
		IsRead:     false, // 接收方视角；发送方本地副本由视图直接按已读呈现
	}

	if err := s.messageRepo.Append(ctx, msg); err != nil {
		log.ErrorContext(ctx, "消息落库失败", "senderID", senderID, "err", err)
		return nil, ErrStoreUnavailable
	}

	s.receipts.RecordSent(ctx, senderID, req.ContextID, msg.CreatedAt)

	// 发送即视为停止输入
	if err := s.presence.Announce(ctx, senderID, req.ReceiverID, req.ContextID, false); err != nil {
		log.Warn("发送后清理输入状态失败", "senderID", senderID, "err", err)
	}

	s.publishInsert(ctx, msg)

	res := toMessageDTO(msg, s.profiles.DisplayName(ctx, senderID))
	res.IsRead = true // 返回给发送方的副本按已读呈现
	return res, nil
}

// History 拉取与对手方在指定房源下的全部往来消息，按时间升序
func (s *messageServiceImpl) History(ctx context.Context, selfID, counterpartID uint64, contextID *uint64) ([]*dto.MessageDTO, error) {
	if selfID == 0 {
		return nil, UnauthorizedError
	}
	if counterpartID == 0 {
		return nil, ErrTargetUserInvalid
	}

	filter := repository.MessageFilter{
		ParticipantID: &selfID,
		PeerID:        &counterpartID,
		ContextID:     contextID,
		UnscopedOnly:  contextID == nil,
		Limit:         s.historySize,
	}
	msgs, err := s.messageRepo.List(ctx, filter)
	if err != nil {
		return nil, ErrStoreUnavailable
	}

	names := s.profiles.DisplayNames(ctx, []uint64{selfID, counterpartID})
	res := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, toMessageDTO(m, names[m.SenderID]))
	}
	return res, nil
}

func (s *messageServiceImpl) publishInsert(ctx context.Context, msg *model.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error("消息事件序列化失败", "msgID", msg.ID, "err", err)
		return
	}
	ev := &feed.Event{Op: feed.OpInsert, Table: consts.TableMessages, Payload: payload}
	if err := s.changeFeed.Publish(ctx, ContextKey(msg.ContextID), ev); err != nil {
		// 推送失败不回滚消息，打开中的视图可通过重拉历史补齐
		log.Warn("消息事件广播失败", "msgID", msg.ID, "err", err)
	}
}
