package model

import (
	"time"
)

// SettlementRecordModel 结算记录，对应一次成功的 Checkout
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Campaign       string `json:"campaign" gorm:"uniqueIndex;not null"`
	Maker          string `json:"maker" gorm:"not null"`
	MakerToken     string `json:"maker_token" gorm:"not null"`
	TotalAmount    uint64 `json:"total_amount" gorm:"not null"`   // 活动记录中的累计金额
	SettledAmount  uint64 `json:"settled_amount" gorm:"not null"` // 托管实际转出金额
	TxId           string `json:"tx_id" gorm:"uniqueIndex"`
	SettlementTime int64  `json:"settlement_time"`
}

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
