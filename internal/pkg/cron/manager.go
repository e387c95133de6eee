package cron

import (
	"CheckinVoyage/internal/job"
	"errors"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine           *cron.Cron
	sweepSpec        string
	presenceSweepJob *job.PresenceSweepJob
}

func NewCronManager(presenceSweepJob *job.PresenceSweepJob, sweepSpec string) *Manager {
	return &Manager{
		engine:           cron.New(cron.WithSeconds()),
		sweepSpec:        sweepSpec,
		presenceSweepJob: presenceSweepJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if s.sweepSpec == "" {
		return errors.New("输入状态清扫任务缺少 cron 表达式")
	}
	if _, err := s.engine.AddJob(s.sweepSpec, s.presenceSweepJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动", "sweep_spec", s.sweepSpec)
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}

func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()
	return nil
}
