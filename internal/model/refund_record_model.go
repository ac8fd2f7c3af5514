package model

import (
	"time"
)

// RefundRecordModel 退款记录，对应一次成功的 Refund
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Campaign       string `json:"campaign" gorm:"index;not null"`
	Contributor    string `json:"contributor" gorm:"index;not null"`
	Record         string `json:"record" gorm:"not null"`
	Amount         uint64 `json:"amount" gorm:"not null"`
	CampaignClosed bool   `json:"campaign_closed" gorm:"default:false"` // 本次退款是否释放了整个活动
	TxId           string `json:"tx_id" gorm:"uniqueIndex"`
	RefundTime     int64  `json:"refund_time"`
}

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
