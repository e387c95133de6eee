package api

import "CheckinVoyage/internal/api/handler"

// HandlersGroup 汇总路由装配所需的全部 Handler
type HandlersGroup struct {
	IMHandler *handler.IMHandler
	WsHandler *handler.WsHandler
}
