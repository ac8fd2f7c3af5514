package model

import (
	"time"
)

// CampaignModel 募资活动投影，由活动记录解码而来
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 地址信息
	Address string `json:"address" gorm:"uniqueIndex;not null"`
	Maker   string `json:"maker" gorm:"index;not null"`
	Mint    string `json:"mint" gorm:"not null"`
	Escrow  string `json:"escrow" gorm:"not null"`
	Bump    uint8  `json:"bump"`

	// 募资信息
	AmountToRaise uint64 `json:"amount_to_raise" gorm:"not null"`
	CurrentAmount uint64 `json:"current_amount" gorm:"default:0"`
	Contributors  int64  `json:"contributors" gorm:"default:0"`

	// 时间信息（unix 秒）
	DurationDays uint8 `json:"duration_days" gorm:"not null"`
	TimeStarted  int64 `json:"time_started" gorm:"not null"`
	EndTime      int64 `json:"end_time" gorm:"index;not null"`

	// 状态
	Status CampaignStatus `json:"status" gorm:"index;default:'active'"`

	InitTx string `json:"init_tx"`
}

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusActive     CampaignStatus = "active"      // 募资中
	CampaignStatusGoalMet    CampaignStatus = "goal_met"    // 已达标，等待提取
	CampaignStatusGoalMissed CampaignStatus = "goal_missed" // 未达标，等待退款
	CampaignStatusSettled    CampaignStatus = "settled"     // 已提取
	CampaignStatusClosed     CampaignStatus = "closed"      // 退款完毕，记录已释放
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
