package job

import (
	"CheckinVoyage/internal/repository"
	"context"
	log "log/slog"
	"time"
)

// PresenceSweepJob 周期性把超过输入窗口仍挂着 is_typing 的行落回 Idle，
// 使持久表与各接收端的本地过期收敛到同一状态。
type PresenceSweepJob struct {
	presenceRepo repository.PresenceRepo
	window       time.Duration
}

func NewPresenceSweepJob(presenceRepo repository.PresenceRepo, window time.Duration) *PresenceSweepJob {
	return &PresenceSweepJob{presenceRepo: presenceRepo, window: window}
}

func (s *PresenceSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := s.presenceRepo.SweepStale(ctx, time.Now().Add(-s.window))
	if err != nil {
		log.Error("输入状态清理失败", "err", err)
		return
	}
	if n > 0 {
		log.Info("输入状态清理完成", "rows", n)
	}
}
