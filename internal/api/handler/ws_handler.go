package handler

import (
	"CheckinVoyage/internal/api/dto"
	"CheckinVoyage/internal/pkg/security"
	"CheckinVoyage/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	bus            service.DeliveryBus
	messageService service.MessageService
	receiptService service.ReceiptService
}

func NewWsHandler(bus service.DeliveryBus, messageService service.MessageService, receiptService service.ReceiptService) *WsHandler {
	return &WsHandler{
		bus:            bus,
		messageService: messageService,
		receiptService: receiptService,
	}
}

// wsControl 客户端控制帧。
// switch 切换正在浏览的房源；send 在当前视图发消息；read 标记会话已读。
type wsControl struct {
	Type          string  `json:"type"`
	ContextID     *uint64 `json:"context_id"`
	ReceiverID    uint64  `json:"receiver_id"`
	CounterpartID uint64  `json:"counterpart_id"`
	Subject       string  `json:"subject"`
	Content       string  `json:"content"`
}

// Connect 建立实时视图连接。一条连接同一时刻只挂一个会话订阅，
// 切换房源先关旧订阅再建新订阅，防止慢查询把消息串进错误的视图。
func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID := claims.UserID
	contextID := parseOptionalUint(c.Query("context_id"))

	// 升级 Websocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	log.Info("用户 WS 连接已建立", "userID", userID)

	var writeMu sync.Mutex
	session := s.bus.Subscribe(context.Background(), userID, contextID)
	go s.pushLoop(conn, &writeMu, session)

	// 读循环：分发控制帧，连接断开即退出
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var ctrl wsControl
		if err := json.Unmarshal(data, &ctrl); err != nil {
			continue
		}
		switch ctrl.Type {
		case "switch":
			session.Close()
			session = s.bus.Subscribe(context.Background(), userID, ctrl.ContextID)
			go s.pushLoop(conn, &writeMu, session)
		case "send":
			s.handleSend(userID, session, &ctrl)
		case "read":
			s.handleRead(userID, session, &ctrl)
		}
	}

	session.Close()
	log.Info("用户 WS 连接已断开", "userID", userID)
}

// handleSend 视图内发消息：先行呈现乐观副本，落库成功后以服务端副本顶替，
// 失败则回滚乐观副本
func (s *WsHandler) handleSend(userID uint64, session *service.ChatSession, ctrl *wsControl) {
	token := session.AppendOptimistic(&dto.MessageDTO{
		SenderID:   userID,
		ReceiverID: ctrl.ReceiverID,
		ContextID:  ctrl.ContextID,
		Subject:    ctrl.Subject,
		Content:    ctrl.Content,
	})

	sent, err := s.messageService.SendMessage(context.Background(), userID, &dto.SendMessageReq{
		ReceiverID: ctrl.ReceiverID,
		ContextID:  ctrl.ContextID,
		Subject:    ctrl.Subject,
		Content:    ctrl.Content,
	})
	if err != nil {
		session.Retract(token)
		log.Warn("WS 发送失败，已回滚乐观副本", "userID", userID, "err", err)
		return
	}
	session.ConfirmOptimistic(token, sent)
}

// handleRead 标记会话已读并原地翻转本地副本，免整页重拉
func (s *WsHandler) handleRead(userID uint64, session *service.ChatSession, ctrl *wsControl) {
	if _, err := s.receiptService.MarkConversationRead(context.Background(), userID, ctrl.CounterpartID, ctrl.ContextID); err != nil {
		log.Warn("WS 标记已读失败", "userID", userID, "err", err)
		return
	}
	session.MarkLocalRead(ctrl.CounterpartID)
}

// pushLoop 将会话事件写到客户端，随会话 Close 退出
func (s *WsHandler) pushLoop(conn *websocket.Conn, writeMu *sync.Mutex, session *service.ChatSession) {
	for ev := range session.Events() {
		frame := dto.SessionFrame{
			Kind:     ev.Kind,
			Message:  ev.Message,
			IsTyping: ev.IsTyping,
		}
		data, err := json.Marshal(frame)
		if err != nil {
			log.Error("WS 帧序列化失败", "err", err)
			continue
		}

		writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		err = conn.WriteMessage(websocket.TextMessage, data)
		writeMu.Unlock()
		if err != nil {
			log.Error("WS 推送失败", "err", err)
			session.Close()
			return
		}
	}
}
