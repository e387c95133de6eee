package wire

import (
	"CheckinVoyage/internal/api"
	"CheckinVoyage/internal/api/config"
	"CheckinVoyage/internal/api/handler"
	"CheckinVoyage/internal/job"
	"CheckinVoyage/internal/pkg/cron"
	"CheckinVoyage/internal/pkg/feed"
	"CheckinVoyage/internal/repository"
	"CheckinVoyage/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	CronMgr *cron.Manager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	messageRepo := repository.NewMessageRepo(db)
	receiptRepo := repository.NewReceiptRepo(db)
	presenceRepo := repository.NewPresenceRepo(db)
	userRepo := repository.NewUserRepo(db)

	changeFeed := feed.NewRedisFeed(cfg.IM.FeedBufferSize)
	typingWindow := time.Duration(cfg.IM.TypingWindowSeconds) * time.Second

	profileService := service.NewProfileService(userRepo)
	receiptService := service.NewReceiptService(messageRepo, receiptRepo)
	presenceService := service.NewPresenceService(presenceRepo, changeFeed)
	messageService := service.NewMessageService(messageRepo, receiptService, presenceService, profileService, changeFeed, cfg.IM.HistoryPageSize)
	conversationService := service.NewConversationService(messageRepo, receiptService, profileService)
	deliveryBus := service.NewDeliveryBus(changeFeed, profileService, typingWindow, cfg.IM.FeedBufferSize)

	handlers := &api.HandlersGroup{
		IMHandler: handler.NewIMHandler(messageService, conversationService, receiptService, presenceService),
		WsHandler: handler.NewWsHandler(deliveryBus, messageService, receiptService),
	}

	router := api.SetupRouter(handlers)

	sweepJob := job.NewPresenceSweepJob(presenceRepo, typingWindow)
	cronMgr := cron.NewCronManager(sweepJob, cfg.IM.PresenceSweepSpec)

	return &ApplicationContainer{
		Router:  router,
		DB:      db,
		CronMgr: cronMgr,
	}, nil
}
