package task

import (
	"fmt"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	clock     runtime.Clock
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, clock runtime.Clock, cfg *config.Config) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		clock:     clock,
		config:    cfg,
	}, nil
}

// Start 注册所有任务并启动调度器
func (m *Manager) Start() error {
	if err := m.RegisterJobs(); err != nil {
		return err
	}
	m.scheduler.Start()
	logger.Info("Task manager started successfully")
	return nil
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() error {
	// 注册活动状态更新任务
	return m.register(NewCampaignStatusJob(m.db, m.clock, m.config.Task))
}

func (m *Manager) register(job Job) error {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.GetName(), err)
	}
	return nil
}

// Jobs 已注册任务数量
func (m *Manager) Jobs() int {
	return len(m.scheduler.Jobs())
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
