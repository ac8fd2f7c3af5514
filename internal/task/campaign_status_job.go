package task

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/model"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// CampaignStatusJob 活动状态更新任务，窗口结束后按金额标记达标或未达标
type CampaignStatusJob struct {
	db     *gorm.DB
	clock  runtime.Clock
	config config.TaskConfig
}

// NewCampaignStatusJob 创建活动状态更新任务
func NewCampaignStatusJob(db *gorm.DB, clock runtime.Clock, cfg config.TaskConfig) *CampaignStatusJob {
	return &CampaignStatusJob{
		db:     db,
		clock:  clock,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *CampaignStatusJob) GetName() string {
	return "campaign_status_updater"
}

// GetSchedule 获取调度配置
func (j *CampaignStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignStatusJob) Execute() {
	if _, err := j.Run(); err != nil {
		logger.Error("campaign status update failed: %v", err)
	}
}

// Run 评估所有进行中的活动，返回更新数量
func (j *CampaignStatusJob) Run() (int, error) {
	now := j.clock.Now()

	var campaigns []model.CampaignModel
	if err := j.db.Where("status = ?", model.CampaignStatusActive).Find(&campaigns).Error; err != nil {
		return 0, fmt.Errorf("fetch active campaigns: %w", err)
	}
	if len(campaigns) == 0 {
		return 0, nil
	}

	workers := j.config.Workers
	if workers <= 0 || workers > len(campaigns) {
		workers = len(campaigns)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return 0, fmt.Errorf("failed to create pool for %d campaigns: %w", len(campaigns), err)
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		updated atomic.Int64
	)
	for i := range campaigns {
		campaign := campaigns[i]
		status, ok := Evaluate(&campaign, now)
		if !ok {
			continue
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			// 只在仍为 active 时更新，避免覆盖同时发生的结算或退款
			res := j.db.Model(&model.CampaignModel{}).
				Where("id = ? AND status = ?", campaign.Id, model.CampaignStatusActive).
				Update("status", status)
			if res.Error != nil {
				logger.Error("Failed to update campaign %s status: %v", campaign.Address, res.Error)
				return
			}
			if res.RowsAffected > 0 {
				logger.Info("Updated campaign %s status from %s to %s", campaign.Address, campaign.Status, status)
				updated.Add(1)
			}
		})
		if submitErr != nil {
			wg.Done()
			logger.Error("Failed to submit campaign %s: %v", campaign.Address, submitErr)
		}
	}
	wg.Wait()

	logger.Info("Campaign status update completed. Updated %d campaigns", updated.Load())
	return int(updated.Load()), nil
}

// Evaluate 按窗口与金额计算活动新状态，无需变更时返回 false。
// 与结算、退款使用同一判定：窗口结束后的整天内两者都不可执行，状态保持 active
func Evaluate(c *model.CampaignModel, now int64) (model.CampaignStatus, bool) {
	if c.Status != model.CampaignStatusActive {
		return "", false
	}
	if !program.WindowElapsed(now, c.TimeStarted, c.DurationDays) {
		return "", false
	}
	if c.CurrentAmount >= c.AmountToRaise {
		return model.CampaignStatusGoalMet, true
	}
	return model.CampaignStatusGoalMissed, true
}
