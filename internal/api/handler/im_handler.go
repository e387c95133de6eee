package handler

import (
	"CheckinVoyage/internal/api/dto"
	"CheckinVoyage/internal/pkg/response"
	"CheckinVoyage/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type IMHandler struct {
	messageService      service.MessageService
	conversationService service.ConversationService
	receiptService      service.ReceiptService
	presenceService     service.PresenceService
}

func NewIMHandler(messageService service.MessageService, conversationService service.ConversationService,
	receiptService service.ReceiptService, presenceService service.PresenceService) *IMHandler {
	return &IMHandler{
		messageService:      messageService,
		conversationService: conversationService,
		receiptService:      receiptService,
		presenceService:     presenceService,
	}
}

// parseOptionalUint 解析可空的 context_id 查询参数
func parseOptionalUint(raw string) *uint64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// SendMessage 发送消息接口
func (s *IMHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	senderID := c.GetUint64("user_id")

	res, err := s.messageService.SendMessage(c.Request.Context(), senderID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetHistory 获取与对手方的历史消息
func (s *IMHandler) GetHistory(c *gin.Context) {
	selfID := c.GetUint64("user_id")
	counterpartID, _ := strconv.ParseUint(c.Query("counterpart_id"), 10, 64)
	contextID := parseOptionalUint(c.Query("context_id"))

	res, err := s.messageService.History(c.Request.Context(), selfID, counterpartID, contextID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetConversations 获取会话列表，支持页签与搜索
func (s *IMHandler) GetConversations(c *gin.Context) {
	selfID := c.GetUint64("user_id")
	tab := service.Tab(c.DefaultQuery("tab", "all"))
	query := c.Query("q")

	res, err := s.conversationService.ListConversations(c.Request.Context(), selfID, tab, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// MarkRead 标记会话已读接口
func (s *IMHandler) MarkRead(c *gin.Context) {
	var req dto.MarkReadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	selfID := c.GetUint64("user_id")

	ids, err := s.receiptService.MarkConversationRead(c.Request.Context(), selfID, req.CounterpartID, req.ContextID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"marked_ids": ids})
}

// Typing 输入状态上报接口
func (s *IMHandler) Typing(c *gin.Context) {
	var req dto.TypingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	selfID := c.GetUint64("user_id")

	if err := s.presenceService.Announce(c.Request.Context(), selfID, req.ReceiverID, req.ContextID, *req.IsTyping); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
