package api

import (
	"CheckinVoyage/internal/api/middleware"
	"CheckinVoyage/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		imGroup := apiGroup.Group("/im")
		{
			// WS 走 token 查询参数鉴权
			imGroup.GET("/ws", group.WsHandler.Connect)

			authGroup := imGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/messages", group.IMHandler.SendMessage)
				authGroup.GET("/messages", group.IMHandler.GetHistory)
				authGroup.GET("/conversations", group.IMHandler.GetConversations)
				authGroup.POST("/read", group.IMHandler.MarkRead)
				authGroup.POST("/typing", group.IMHandler.Typing)
			}
		}
	}

	return r
}
