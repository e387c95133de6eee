package service

import (
	"CheckinVoyage/internal/api/dto"
	"CheckinVoyage/internal/model"
	"CheckinVoyage/internal/repository"
	"context"
	"sort"
	"strings"
	"time"
)

// Tab 会话列表页签
type Tab string

const (
	TabAll    Tab = "all"
	TabUnread Tab = "unread"
)

// Conversation 派生会话，不落库，每次消息集变化重算
type Conversation struct {
	CounterpartID   uint64
	CounterpartName string
	ContextID       *uint64
	LatestMessage   *model.Message
	UnreadCount     int
	Timestamp       time.Time
	Messages        []*model.Message
}

type ConversationService interface {
	ListConversations(ctx context.Context, selfID uint64, tab Tab, query string) ([]*dto.ConversationDTO, error)
}

type conversationServiceImpl struct {
	messageRepo repository.MessageRepo
	receipts    ReceiptService
	profiles    ProfileService
}

func NewConversationService(messageRepo repository.MessageRepo, receipts ReceiptService, profiles ProfileService) ConversationService {
	return &conversationServiceImpl{
		messageRepo: messageRepo,
		receipts:    receipts,
		profiles:    profiles,
	}
}

type partitionKey struct {
	counterpartID uint64
	contextKey    string
}

// GroupByCounterpart 按对手方与房源分组，派生最新消息、未读数与排序时间戳。
// 自发自收的异常数据直接跳过。结果按时间戳降序，同刻保持分组先后顺序。
func GroupByCounterpart(msgs []*model.Message, selfID uint64) []*Conversation {
	index := make(map[partitionKey]*Conversation)
	var ordered []*Conversation

	for _, m := range msgs {
		if m.SenderID == selfID && m.ReceiverID == selfID {
			continue
		}

		var counterpartID uint64
		switch selfID {
		case m.SenderID:
			counterpartID = m.ReceiverID
		case m.ReceiverID:
			counterpartID = m.SenderID
		default:
			continue
		}

		key := partitionKey{counterpartID: counterpartID, contextKey: ContextKey(m.ContextID)}
		conv, ok := index[key]
		if !ok {
			conv = &Conversation{
				CounterpartID: counterpartID,
				ContextID:     m.ContextID,
				LatestMessage: m,
				Timestamp:     m.CreatedAt,
			}
			index[key] = conv
			ordered = append(ordered, conv)
		}

		conv.Messages = append(conv.Messages, m)
		if m.CreatedAt.After(conv.LatestMessage.CreatedAt) {
			conv.LatestMessage = m
			conv.Timestamp = m.CreatedAt
		}
		if m.ReceiverID == selfID && !m.IsRead {
			conv.UnreadCount++
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})
	return ordered
}

// FilterConversations 页签与搜索复合过滤（逻辑与）。
// 搜索对对手方昵称及会话内任意消息的正文/主题做大小写不敏感的子串匹配。
// 纯函数，搜索框每次击键都会重算。
func FilterConversations(convs []*Conversation, tab Tab, query string) []*Conversation {
	needle := strings.ToLower(strings.TrimSpace(query))

	result := make([]*Conversation, 0, len(convs))
	for _, c := range convs {
		if tab == TabUnread && c.UnreadCount == 0 {
			continue
		}
		if needle != "" && !conversationMatches(c, needle) {
			continue
		}
		result = append(result, c)
	}
	return result
}

func conversationMatches(c *Conversation, needle string) bool {
	if strings.Contains(strings.ToLower(c.CounterpartName), needle) {
		return true
	}
	for _, m := range c.Messages {
		if strings.Contains(strings.ToLower(m.Content), needle) ||
			strings.Contains(strings.ToLower(m.Subject), needle) {
			return true
		}
	}
	return false
}

// ListConversations 拉取当前用户全部消息，分组、补昵称、过滤并计算 Seen 角标
func (s *conversationServiceImpl) ListConversations(ctx context.Context, selfID uint64, tab Tab, query string) ([]*dto.ConversationDTO, error) {
	if selfID == 0 {
		return nil, UnauthorizedError
	}
	if tab == "" {
		tab = TabAll
	}

	msgs, err := s.messageRepo.List(ctx, repository.MessageFilter{ParticipantID: &selfID})
	if err != nil {
		return nil, ErrStoreUnavailable
	}

	convs := GroupByCounterpart(msgs, selfID)

	ids := make([]uint64, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.CounterpartID)
	}
	names := s.profiles.DisplayNames(ctx, ids)
	for _, c := range convs {
		c.CounterpartName = names[c.CounterpartID]
	}

	convs = FilterConversations(convs, tab, query)

	res := make([]*dto.ConversationDTO, 0, len(convs))
	for _, c := range convs {
		d := &dto.ConversationDTO{
			CounterpartID:   c.CounterpartID,
			CounterpartName: c.CounterpartName,
			ContextID:       c.ContextID,
			LatestMessage:   toMessageDTO(c.LatestMessage, names[c.LatestMessage.SenderID]),
			UnreadCount:     c.UnreadCount,
			Timestamp:       c.Timestamp,
		}

		// Seen 角标只依据最近一条外发消息与对方的会话级已读进度
		if c.LatestMessage.SenderID == selfID {
			receipt, err := s.receipts.CounterpartReceipt(ctx, c.CounterpartID, c.ContextID)
			if err == nil {
				d.LatestSeen = IsSeenByCounterpart(c.LatestMessage, receipt)
			}
		}
		res = append(res, d)
	}
	return res, nil
}
