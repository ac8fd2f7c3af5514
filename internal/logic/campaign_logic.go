package logic

import (
	"errors"
	"fmt"

	"github.com/blues/fundraiser/internal/model"
	"gorm.io/gorm"
)

var ErrCampaignNotFound = errors.New("活动不存在")

// CampaignLogic 活动查询逻辑
type CampaignLogic struct {
	db *gorm.DB
}

// NewCampaignLogic 创建活动查询逻辑
func NewCampaignLogic(db *gorm.DB) *CampaignLogic {
	return &CampaignLogic{db: db}
}

// GetCampaigns 分页获取活动列表，status 与 maker 为空时不过滤
func (l *CampaignLogic) GetCampaigns(status, maker string, page, pageSize int) ([]model.CampaignModel, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	query := l.db.Model(&model.CampaignModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if maker != "" {
		query = query.Where("maker = ?", maker)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动总数失败: %w", err)
	}

	var campaigns []model.CampaignModel
	if err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&campaigns).Error; err != nil {
		return nil, 0, fmt.Errorf("获取活动列表失败: %w", err)
	}
	return campaigns, total, nil
}

// GetCampaign 获取活动详情
func (l *CampaignLogic) GetCampaign(address string) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	if err := l.db.Where("address = ?", address).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("获取活动详情失败: %w", err)
	}
	return &campaign, nil
}

// CampaignStats 单个活动统计
type CampaignStats struct {
	Address              string               `json:"address"`
	Status               model.CampaignStatus `json:"status"`
	AmountToRaise        uint64               `json:"amount_to_raise"`
	CurrentAmount        uint64               `json:"current_amount"`
	CompletionPercentage float64              `json:"completion_percentage"`
	ContributorCount     int64                `json:"contributor_count"`
	ContributionCount    int64                `json:"contribution_count"`
	RefundedAmount       uint64               `json:"refunded_amount"`
	RefundCount          int64                `json:"refund_count"`
	SettledAmount        uint64               `json:"settled_amount"`
	RemainingSeconds     int64                `json:"remaining_seconds"`
}

// GetCampaignStats 获取活动统计信息，now 为当前 unix 秒
func (l *CampaignLogic) GetCampaignStats(address string, now int64) (*CampaignStats, error) {
	campaign, err := l.GetCampaign(address)
	if err != nil {
		return nil, err
	}
	stats := &CampaignStats{
		Address:       campaign.Address,
		Status:        campaign.Status,
		AmountToRaise: campaign.AmountToRaise,
		CurrentAmount: campaign.CurrentAmount,
	}

	if err := l.db.Model(&model.ContributionModel{}).Where("campaign = ?", address).
		Count(&stats.ContributionCount).Error; err != nil {
		return nil, fmt.Errorf("获取贡献次数失败: %w", err)
	}
	if err := l.db.Model(&model.ContributionModel{}).Where("campaign = ?", address).
		Distinct("contributor").Count(&stats.ContributorCount).Error; err != nil {
		return nil, fmt.Errorf("获取贡献者数量失败: %w", err)
	}
	if err := l.db.Model(&model.RefundRecordModel{}).Where("campaign = ?", address).
		Count(&stats.RefundCount).Error; err != nil {
		return nil, fmt.Errorf("获取退款次数失败: %w", err)
	}
	if err := l.db.Model(&model.RefundRecordModel{}).Where("campaign = ?", address).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.RefundedAmount).Error; err != nil {
		return nil, fmt.Errorf("获取退款金额失败: %w", err)
	}
	if err := l.db.Model(&model.SettlementRecordModel{}).Where("campaign = ?", address).
		Select("COALESCE(SUM(settled_amount), 0)").Scan(&stats.SettledAmount).Error; err != nil {
		return nil, fmt.Errorf("获取结算金额失败: %w", err)
	}

	if campaign.AmountToRaise > 0 {
		stats.CompletionPercentage = float64(campaign.CurrentAmount) / float64(campaign.AmountToRaise) * 100
	}
	if campaign.Status == model.CampaignStatusActive && now < campaign.EndTime {
		stats.RemainingSeconds = campaign.EndTime - now
	}
	return stats, nil
}

// GetAllCampaignStats 获取全部活动汇总
func (l *CampaignLogic) GetAllCampaignStats() (map[string]interface{}, error) {
	var total int64
	if err := l.db.Model(&model.CampaignModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("获取活动总数失败: %w", err)
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := l.db.Model(&model.CampaignModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("获取活动状态分布失败: %w", err)
	}
	statuses := make(map[string]int64, len(byStatus))
	for _, s := range byStatus {
		statuses[s.Status] = s.Count
	}

	var totalRaised uint64
	if err := l.db.Model(&model.CampaignModel{}).
		Select("COALESCE(SUM(current_amount), 0)").
		Scan(&totalRaised).Error; err != nil {
		return nil, fmt.Errorf("获取募资总额失败: %w", err)
	}

	var totalContributors int64
	if err := l.db.Model(&model.ContributionModel{}).
		Distinct("contributor").
		Count(&totalContributors).Error; err != nil {
		return nil, fmt.Errorf("获取贡献者总数失败: %w", err)
	}

	return map[string]interface{}{
		"totalCampaigns":    total,
		"statuses":          statuses,
		"totalRaised":       fmt.Sprintf("%d", totalRaised),
		"totalContributors": totalContributors,
	}, nil
}

// normalizePage 页码从1开始，每页最多100条
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
