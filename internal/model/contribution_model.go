package model

import (
	"time"
)

// ContributionModel 贡献记录，每笔 Contribute 调用一行
type ContributionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Campaign    string `json:"campaign" gorm:"index;not null"`
	Contributor string `json:"contributor" gorm:"index;not null"`
	Record      string `json:"record" gorm:"not null"` // 贡献记录账户地址
	Amount      uint64 `json:"amount" gorm:"not null"`
	Total       uint64 `json:"total" gorm:"not null"` // 本次之后该出资者累计金额
	Refunded    bool   `json:"refunded" gorm:"default:false"`
	TxId        string `json:"tx_id" gorm:"uniqueIndex"`
	Timestamp   int64  `json:"timestamp"`
}

// TableName 自定义表名
func (ContributionModel) TableName() string {
	return "contribution"
}
