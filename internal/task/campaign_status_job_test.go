package task_test

import (
	"fmt"
	"testing"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/model"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/blues/fundraiser/internal/store"
	"github.com/blues/fundraiser/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const day = int64(program.SecondsPerDay)

func init() {
	logger.SetDefaultLogger(logger.NewNop())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func campaign(address string, raised uint64, status model.CampaignStatus) model.CampaignModel {
	return model.CampaignModel{
		Address:       address,
		Maker:         "maker-" + address,
		Mint:          "mint",
		Escrow:        "escrow-" + address,
		AmountToRaise: 1_000,
		CurrentAmount: raised,
		DurationDays:  3,
		TimeStarted:   0,
		EndTime:       3 * day,
		Status:        status,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		c      model.CampaignModel
		now    int64
		want   model.CampaignStatus
		change bool
	}{
		{"window open", campaign("a", 0, model.CampaignStatusActive), 3*day - 1, "", false},
		{"window closed, not yet elapsed", campaign("a", 1_000, model.CampaignStatusActive), 3 * day, "", false},
		{"last second before elapsed", campaign("a", 999, model.CampaignStatusActive), 4*day - 1, "", false},
		{"goal met", campaign("a", 1_000, model.CampaignStatusActive), 4 * day, model.CampaignStatusGoalMet, true},
		{"goal missed", campaign("a", 999, model.CampaignStatusActive), 4 * day, model.CampaignStatusGoalMissed, true},
		{"already settled", campaign("a", 1_000, model.CampaignStatusSettled), 10 * day, "", false},
		{"already closed", campaign("a", 0, model.CampaignStatusClosed), 10 * day, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := task.Evaluate(&tt.c, tt.now)
			assert.Equal(t, tt.change, ok)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestCampaignStatusJobRun(t *testing.T) {
	db := newTestDB(t)
	rows := []model.CampaignModel{
		campaign("met", 1_500, model.CampaignStatusActive),
		campaign("missed", 10, model.CampaignStatusActive),
		campaign("settled", 1_000, model.CampaignStatusSettled),
	}
	open := campaign("open", 0, model.CampaignStatusActive)
	open.TimeStarted = 2 * day
	open.EndTime = 5 * day
	rows = append(rows, open)
	// 窗口已关闭但还不能结算或退款
	grace := campaign("grace", 1_500, model.CampaignStatusActive)
	grace.TimeStarted = day / 2
	grace.EndTime = grace.TimeStarted + 3*day
	rows = append(rows, grace)
	for i := 0; i < 20; i++ {
		rows = append(rows, campaign(fmt.Sprintf("bulk-%d", i), 0, model.CampaignStatusActive))
	}
	require.NoError(t, db.Create(&rows).Error)

	clock := runtime.NewFixedClock(4 * day)
	job := task.NewCampaignStatusJob(db, clock, config.TaskConfig{Interval: 60, Workers: 4})
	assert.Equal(t, "campaign_status_updater", job.GetName())

	updated, err := job.Run()
	require.NoError(t, err)
	assert.Equal(t, 22, updated)

	status := func(address string) model.CampaignStatus {
		var row model.CampaignModel
		require.NoError(t, db.Where("address = ?", address).First(&row).Error)
		return row.Status
	}
	assert.Equal(t, model.CampaignStatusGoalMet, status("met"))
	assert.Equal(t, model.CampaignStatusGoalMissed, status("missed"))
	assert.Equal(t, model.CampaignStatusSettled, status("settled"))
	assert.Equal(t, model.CampaignStatusActive, status("open"))
	assert.Equal(t, model.CampaignStatusActive, status("grace"))
	assert.Equal(t, model.CampaignStatusGoalMissed, status("bulk-7"))

	// 再次执行没有需要更新的活动
	updated, err = job.Run()
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestManagerRegistersJobs(t *testing.T) {
	cfg := &config.Config{Task: config.TaskConfig{Interval: 60, Workers: 2}}
	m, err := task.NewManager(newTestDB(t), runtime.NewFixedClock(0), cfg)
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Stop()
	assert.Equal(t, 1, m.Jobs())
}
